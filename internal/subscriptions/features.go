package subscriptions

import (
	"strings"

	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/types"
)

var bundles = map[enums.SubscriptionTier]types.Features{
	enums.SubscriptionTierFree: {
		DailySwipeLimit:  20,
		SuperLikesPerDay: 1,
		MonthlyBoosts:    0,
	},
	enums.SubscriptionTierPro: {
		DailySwipeLimit:   types.Unlimited,
		SuperLikesPerDay:  5,
		MonthlyBoosts:     1,
		CanSeeWhoLikedYou: true,
		CanUndoSwipe:      true,
		ProfileAnalytics:  true,
	},
	enums.SubscriptionTierPremium: {
		DailySwipeLimit:       types.Unlimited,
		SuperLikesPerDay:      types.Unlimited,
		MonthlyBoosts:         5,
		CanSeeWhoLikedYou:     true,
		CanUndoSwipe:          true,
		PriorityListing:       true,
		ProfileAnalytics:      true,
		AdvancedAnalytics:     true,
		CanMessageBeforeMatch: true,
		VerifiedBadge:         true,
	},
}

// NormalizeTier maps stored tier or plan text onto a canonical tier. The
// legacy basic tier becomes pro; empty or unknown values become free.
func NormalizeTier(raw string) enums.SubscriptionTier {
	tier, err := enums.ParseSubscriptionTier(raw)
	if err != nil {
		return enums.SubscriptionTierFree
	}
	return tier
}

// FeaturesFor returns the fixed feature bundle of a tier.
func FeaturesFor(tier enums.SubscriptionTier) types.Features {
	if bundle, ok := bundles[NormalizeTier(string(tier))]; ok {
		return bundle
	}
	return bundles[enums.SubscriptionTierFree]
}

// IsActiveStatus reports whether the status grants the tier's paid features.
func IsActiveStatus(status enums.SubscriptionStatus) bool {
	return status.IsActive()
}

// TierOf resolves a subscription's effective tier from tier, then plan, then free.
func TierOf(tier, plan *string) enums.SubscriptionTier {
	if tier != nil && strings.TrimSpace(*tier) != "" {
		return NormalizeTier(*tier)
	}
	if plan != nil && strings.TrimSpace(*plan) != "" {
		return NormalizeTier(*plan)
	}
	return enums.SubscriptionTierFree
}
