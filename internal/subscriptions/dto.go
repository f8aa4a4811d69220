package subscriptions

import (
	"time"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/types"
)

// SubscriptionDTO is the caller-facing view of a subscription.
type SubscriptionDTO struct {
	Tier                  enums.SubscriptionTier    `json:"tier"`
	Status                *enums.SubscriptionStatus `json:"status,omitempty"`
	HasActiveSubscription bool                      `json:"hasActiveSubscription"`
	CurrentPeriodEnd      *time.Time                `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd     bool                      `json:"cancelAtPeriodEnd"`
	Features              types.Features            `json:"features"`
}

// FeaturesDTO is the response of the features endpoint.
type FeaturesDTO struct {
	Tier     enums.SubscriptionTier `json:"tier"`
	Features types.Features         `json:"features"`
}

func freeView() *SubscriptionDTO {
	return &SubscriptionDTO{
		Tier:     enums.SubscriptionTierFree,
		Features: FeaturesFor(enums.SubscriptionTierFree),
	}
}

// FromModel converts a stored subscription into its view. Inactive
// subscriptions expose the free bundle.
func FromModel(sub *models.Subscription) *SubscriptionDTO {
	if sub == nil {
		return freeView()
	}
	status := sub.Status
	dto := &SubscriptionDTO{
		Tier:                  TierOf(sub.Tier, sub.Plan),
		Status:                &status,
		HasActiveSubscription: sub.HasActiveSubscription,
		CurrentPeriodEnd:      sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:     sub.CancelAtPeriodEnd,
	}
	dto.Features = effectiveFeatures(sub)
	return dto
}

func effectiveFeatures(sub *models.Subscription) types.Features {
	if sub == nil || !IsActiveStatus(sub.Status) {
		return FeaturesFor(enums.SubscriptionTierFree)
	}
	if sub.Features != nil {
		return *sub.Features
	}
	return FeaturesFor(TierOf(sub.Tier, sub.Plan))
}
