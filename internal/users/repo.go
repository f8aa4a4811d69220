package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID. Missing rows return gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row is present.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateSubscription mirrors the subscription tier and active flag onto the user.
func (r *Repository) UpdateSubscription(ctx context.Context, id uuid.UUID, tier enums.SubscriptionTier, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"subscription_tier":       tier,
			"has_active_subscription": active,
		}).Error
}

// PushToken returns the user's push token, nil when none is registered.
func (r *Repository) PushToken(ctx context.Context, id uuid.UUID) (*string, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.PushToken, nil
}

// UpdateSubscriptionWithTx mirrors the subscription state inside an open transaction.
func (r *Repository) UpdateSubscriptionWithTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, tier enums.SubscriptionTier, active bool) error {
	return r.WithTx(tx).UpdateSubscription(ctx, id, tier, active)
}
