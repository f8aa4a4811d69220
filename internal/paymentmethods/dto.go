package paymentmethods

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// PaymentMethodDTO is the transport shape of a saved payment method.
type PaymentMethodDTO struct {
	ID                    uuid.UUID               `json:"id"`
	StripePaymentMethodID string                  `json:"stripePaymentMethodId"`
	Type                  enums.PaymentMethodType `json:"type"`
	CardBrand             *string                 `json:"cardBrand,omitempty"`
	CardLast4             *string                 `json:"cardLast4,omitempty"`
	CardExpMonth          *int                    `json:"cardExpMonth,omitempty"`
	CardExpYear           *int                    `json:"cardExpYear,omitempty"`
	IsDefault             bool                    `json:"isDefault"`
	CreatedAt             time.Time               `json:"createdAt"`
}

// FromModel converts a stored payment method into its transport shape.
func FromModel(m *models.PaymentMethod) PaymentMethodDTO {
	return PaymentMethodDTO{
		ID:                    m.ID,
		StripePaymentMethodID: m.StripePaymentMethodID,
		Type:                  m.Type,
		CardBrand:             m.CardBrand,
		CardLast4:             m.CardLast4,
		CardExpMonth:          m.CardExpMonth,
		CardExpYear:           m.CardExpYear,
		IsDefault:             m.IsDefault,
		CreatedAt:             m.CreatedAt,
	}
}
