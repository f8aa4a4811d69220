package subscriptions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

func stripeSub(status stripe.SubscriptionStatus, priceID string, metadata map[string]string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:                "sub_123",
		Status:            status,
		CancelAtPeriodEnd: true,
		Customer:          &stripe.Customer{ID: "cus_123"},
		Metadata:          metadata,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price:              &stripe.Price{ID: priceID},
				CurrentPeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
				CurrentPeriodEnd:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Unix(),
			}},
		},
	}
}

func TestStateFromStripeMapsPriceToTier(t *testing.T) {
	userID := uuid.New()
	sub := stripeSub(stripe.SubscriptionStatusActive, "price_pro", map[string]string{MetadataUserID: userID.String()})

	state, err := StateFromStripe(sub, map[string]string{"price_pro": "pro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.UserID != userID {
		t.Fatalf("expected user id from metadata")
	}
	if state.Tier != enums.SubscriptionTierPro {
		t.Fatalf("expected pro tier, got %s", state.Tier)
	}
	if state.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected status %s", state.Status)
	}
	if state.StripeCustomerID != "cus_123" || state.StripePriceID != "price_pro" {
		t.Fatalf("unexpected ids %+v", state)
	}
	if state.CurrentPeriodEnd == nil || state.CurrentPeriodEnd.Month() != time.February {
		t.Fatalf("expected period end from first item")
	}
	if !state.CancelAtPeriodEnd {
		t.Fatalf("expected cancel at period end")
	}
}

func TestStateFromStripeFallsBackToMetadataTier(t *testing.T) {
	sub := stripeSub(stripe.SubscriptionStatusPaused, "price_unknown", map[string]string{"tier": "basic"})
	state, err := StateFromStripe(sub, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Tier != enums.SubscriptionTierPro {
		t.Fatalf("expected legacy basic to map to pro, got %s", state.Tier)
	}
	if state.Status != enums.SubscriptionStatusPaused {
		t.Fatalf("expected paused, got %s", state.Status)
	}
	if state.UserID != uuid.Nil {
		t.Fatalf("expected no user id")
	}
}

func TestStateFromStripeRejectsBadInput(t *testing.T) {
	if _, err := StateFromStripe(nil, nil); err == nil {
		t.Fatalf("expected error for nil subscription")
	}
	sub := stripeSub(stripe.SubscriptionStatusActive, "p", map[string]string{MetadataUserID: "not-a-uuid"})
	_, err := StateFromStripe(sub, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	sub = stripeSub(stripe.SubscriptionStatus("mystery"), "p", nil)
	if _, err := StateFromStripe(sub, nil); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
