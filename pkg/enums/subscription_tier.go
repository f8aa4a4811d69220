package enums

import (
	"slices"
	"strings"
)

// SubscriptionTier controls which feature bundle a user receives.
type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierPro     SubscriptionTier = "pro"
	SubscriptionTierPremium SubscriptionTier = "premium"

	// SubscriptionTierBasic is the legacy name for pro. It is only read, never written.
	SubscriptionTierBasic SubscriptionTier = "basic"
)

var subscriptionTiers = []SubscriptionTier{
	SubscriptionTierFree,
	SubscriptionTierPro,
	SubscriptionTierPremium,
}

func (t SubscriptionTier) String() string { return string(t) }

// IsValid reports whether the value is a canonical tier.
func (t SubscriptionTier) IsValid() bool { return slices.Contains(subscriptionTiers, t) }

// ParseSubscriptionTier normalizes case and whitespace and folds the legacy
// basic tier into pro.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if SubscriptionTier(normalized) == SubscriptionTierBasic {
		return SubscriptionTierPro, nil
	}
	return parse("subscription tier", normalized, subscriptionTiers)
}
