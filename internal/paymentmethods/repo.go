package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
)

// Repository defines persistence for a user's saved payment methods.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error)
	FindByStripeID(ctx context.Context, stripeID string) (*models.PaymentMethod, error)
	Create(ctx context.Context, method *models.PaymentMethod) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	MarkDefault(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	MostRecentActive(ctx context.Context, userID uuid.UUID) (*models.PaymentMethod, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment method repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListActive returns active methods with the default first, then newest.
func (r *repository) ListActive(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&methods).Error
	return methods, err
}

func (r *repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) FindByStripeID(ctx context.Context, stripeID string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).
		Where("stripe_payment_method_id = ?", stripeID).
		First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) Create(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("id = ?", id).
		Update("is_default", true).Error
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "is_default": false}).Error
}

// MostRecentActive returns nil when the user has no active method.
func (r *repository) MostRecentActive(ctx context.Context, userID uuid.UUID) (*models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Order("id").
		Limit(1).
		Find(&methods).Error; err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		return nil, nil
	}
	return &methods[0], nil
}
