package gigs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
)

// Repository reads gigs for review verification.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a gigs repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a gig. Missing rows return gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	if err := r.db.WithContext(ctx).First(&gig, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

// Create inserts a gig, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, gig *models.Gig) error {
	if gig.ID == uuid.Nil {
		gig.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(gig).Error
}
