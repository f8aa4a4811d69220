package enums

import "slices"

// PaymentMethodType is the stored category of a saved payment method.
type PaymentMethodType string

const (
	PaymentMethodTypeCard        PaymentMethodType = "card"
	PaymentMethodTypeBankAccount PaymentMethodType = "bank_account"
)

var paymentMethodTypes = []PaymentMethodType{PaymentMethodTypeCard, PaymentMethodTypeBankAccount}

// providerPaymentMethodAliases maps provider spellings onto stored types.
var providerPaymentMethodAliases = map[string]PaymentMethodType{
	"us_bank_account": PaymentMethodTypeBankAccount,
}

func (p PaymentMethodType) String() string { return string(p) }

func (p PaymentMethodType) IsValid() bool { return slices.Contains(paymentMethodTypes, p) }

// ParsePaymentMethodType accepts stored names and provider aliases.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	if alias, ok := providerPaymentMethodAliases[value]; ok {
		return alias, nil
	}
	return parse("payment method type", value, paymentMethodTypes)
}
