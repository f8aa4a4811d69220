package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// UserDTO is the transport shape of a user.
type UserDTO struct {
	ID                    uuid.UUID `json:"id"`
	Email                 string    `json:"email"`
	DisplayName           string    `json:"display_name"`
	SubscriptionTier      string    `json:"subscription_tier"`
	HasActiveSubscription bool      `json:"has_active_subscription"`
	CreatedAt             time.Time `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email       string
	DisplayName string
	PushToken   *string
}

// FromModel converts a persisted user into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	tier := enums.SubscriptionTierFree
	if u.SubscriptionTier != nil {
		tier = *u.SubscriptionTier
	}
	return &UserDTO{
		ID:                    u.ID,
		Email:                 u.Email,
		DisplayName:           u.DisplayName,
		SubscriptionTier:      tier.String(),
		HasActiveSubscription: u.HasActiveSubscription,
		CreatedAt:             u.CreatedAt,
	}
}

// ToModel builds a new user on the free tier.
func (d CreateUserDTO) ToModel() *models.User {
	free := enums.SubscriptionTierFree
	return &models.User{
		ID:               uuid.New(),
		Email:            strings.ToLower(strings.TrimSpace(d.Email)),
		DisplayName:      strings.TrimSpace(d.DisplayName),
		SubscriptionTier: &free,
		PushToken:        d.PushToken,
	}
}
