package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID                    uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Email                 string                  `gorm:"type:text;not null;uniqueIndex"`
	DisplayName           string                  `gorm:"column:display_name;not null"`
	SubscriptionTier      *enums.SubscriptionTier `gorm:"column:subscription_tier"`
	HasActiveSubscription bool                    `gorm:"column:has_active_subscription;not null;default:false"`
	PushToken             *string                 `gorm:"column:push_token"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
