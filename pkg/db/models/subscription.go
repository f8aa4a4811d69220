package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/types"
)

// Subscription persists billing-provider subscription state per user.
// Plan is the legacy tier column kept for records written before tiers existed.
type Subscription struct {
	ID                    uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID                uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Plan                  *string                  `gorm:"column:plan"`
	Status                enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'active'"`
	StripeSubscriptionID  *string                  `gorm:"column:stripe_subscription_id;unique"`
	StripeCustomerID      *string                  `gorm:"column:stripe_customer_id"`
	StripePriceID         *string                  `gorm:"column:stripe_price_id"`
	CurrentPeriodStart    *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd      *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd     bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	Tier                  *string                  `gorm:"column:tier"`
	HasActiveSubscription bool                     `gorm:"column:has_active_subscription;not null;default:false"`
	Features              *types.Features          `gorm:"column:features;type:jsonb"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
