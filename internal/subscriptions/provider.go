package subscriptions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

// MetadataUserID is the Stripe metadata key carrying the owning user id.
const MetadataUserID = "user_id"

// StripeSubscriptionClient exposes the subset of Stripe operations required for sync.
type StripeSubscriptionClient interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

// ProviderState is the billing provider's view of a subscription.
type ProviderState struct {
	UserID               uuid.UUID
	StripeSubscriptionID string
	StripeCustomerID     string
	StripePriceID        string
	Status               enums.SubscriptionStatus
	// Tier is empty when the price is not mapped; the stored tier is kept then.
	Tier               enums.SubscriptionTier
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// StateFromStripe maps a Stripe subscription into a ProviderState. priceTiers
// maps Stripe price ids to tier names.
func StateFromStripe(sub *stripe.Subscription, priceTiers map[string]string) (ProviderState, error) {
	if sub == nil {
		return ProviderState{}, pkgerrors.New(pkgerrors.CodeDependency, "stripe subscription is nil")
	}
	status, err := enums.ParseSubscriptionStatus(strings.ToLower(strings.TrimSpace(string(sub.Status))))
	if err != nil {
		return ProviderState{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid stripe subscription status")
	}

	state := ProviderState{
		StripeSubscriptionID: sub.ID,
		Status:               status,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		state.StripeCustomerID = sub.Customer.ID
	}
	if raw, ok := sub.Metadata[MetadataUserID]; ok && strings.TrimSpace(raw) != "" {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return ProviderState{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id metadata")
		}
		state.UserID = id
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0] != nil {
		item := sub.Items.Data[0]
		state.CurrentPeriodStart = toTimePtr(item.CurrentPeriodStart)
		state.CurrentPeriodEnd = toTimePtr(item.CurrentPeriodEnd)
		if item.Price != nil {
			state.StripePriceID = item.Price.ID
		}
	}
	if tier, ok := priceTiers[state.StripePriceID]; ok && state.StripePriceID != "" {
		state.Tier = NormalizeTier(tier)
	} else if tier, ok := sub.Metadata["tier"]; ok && strings.TrimSpace(tier) != "" {
		state.Tier = NormalizeTier(tier)
	}
	return state, nil
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func trimmedPtr(value string) *string {
	if s := strings.TrimSpace(value); s != "" {
		return &s
	}
	return nil
}
