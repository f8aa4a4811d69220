package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// PaymentMethod mirrors Stripe payment methods per user.
type PaymentMethod struct {
	ID                    uuid.UUID               `gorm:"type:uuid;primaryKey"`
	UserID                uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	StripePaymentMethodID string                  `gorm:"column:stripe_payment_method_id;not null;unique"`
	Type                  enums.PaymentMethodType `gorm:"column:type;type:payment_method_type;not null;default:'card'"`
	CardBrand             *string                 `gorm:"column:card_brand"`
	CardLast4             *string                 `gorm:"column:card_last4"`
	CardExpMonth          *int                    `gorm:"column:card_exp_month"`
	CardExpYear           *int                    `gorm:"column:card_exp_year"`
	IsDefault             bool                    `gorm:"column:is_default;not null;default:false"`
	IsActive              bool                    `gorm:"column:is_active;not null;default:true"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
