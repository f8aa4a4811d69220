package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// Repository persists reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repo bound to the provided GORM DB.
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

// Create inserts a review, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(review).Error
}

// FindByID loads a review. Missing rows return gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByIDForUpdate loads a review and locks the row for the open transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsForGigReviewer reports whether the user already reviewed the gig.
func (r *Repository) ExistsForGigReviewer(ctx context.Context, gigID, reviewerID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("gig_id = ? AND reviewer_id = ?", gigID, reviewerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListQuery selects one page of a target's published reviews.
type ListQuery struct {
	TargetType enums.ReviewTargetType
	TargetID   uuid.UUID
	Sort       enums.ReviewSort
	Rating     *int
	Limit      int
	Offset     int
}

// ListPublished returns a page of published reviews plus the total match count.
func (r *Repository) ListPublished(ctx context.Context, q ListQuery) ([]models.Review, int64, error) {
	base, err := r.targetScope(ctx, q.TargetType, q.TargetID)
	if err != nil {
		return nil, 0, err
	}
	base = base.Where("status = ?", enums.ReviewStatusPublished)
	if q.Rating != nil {
		base = base.Where("overall_rating = ?", *q.Rating)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Model(&models.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Review
	if err := base.Session(&gorm.Session{}).
		Order(orderFor(q.Sort)).
		Order("id").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByReviewer returns a page of reviews written by the user, newest first.
func (r *Repository) ListByReviewer(ctx context.Context, reviewerID uuid.UUID, limit, offset int) ([]models.Review, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Review{}).Where("reviewer_id = ?", reviewerID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Review
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// PublishedForTarget returns every published review of a profile in creation order.
func (r *Repository) PublishedForTarget(ctx context.Context, targetType enums.ReviewTargetType, targetID uuid.UUID) ([]models.Review, error) {
	base, err := r.targetScope(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}
	var rows []models.Review
	if err := base.
		Where("status = ?", enums.ReviewStatusPublished).
		Order("created_at ASC").
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetResponseIfAbsent stores the owner's reply unless one already exists and
// reports how many rows changed.
func (r *Repository) SetResponseIfAbsent(ctx context.Context, id uuid.UUID, response string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ? AND response IS NULL", id).
		Updates(map[string]any{
			"response":    response,
			"response_at": at,
		})
	return res.RowsAffected, res.Error
}

// UpdateHelpful writes the voter set and count.
func (r *Repository) UpdateHelpful(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]any{
			"helpful_voters": review.HelpfulVoters,
			"helpful_count":  review.HelpfulCount,
		}).Error
}

func (r *Repository) targetScope(ctx context.Context, targetType enums.ReviewTargetType, targetID uuid.UUID) (*gorm.DB, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{}).Where("target_type = ?", targetType)
	switch targetType {
	case enums.ReviewTargetArtist:
		return q.Where("target_artist_id = ?", targetID), nil
	case enums.ReviewTargetVenue:
		return q.Where("target_venue_id = ?", targetID), nil
	default:
		return nil, errUnknownTarget
	}
}

var errUnknownTarget = errors.New("unknown review target type")

func orderFor(sort enums.ReviewSort) string {
	switch sort {
	case enums.ReviewSortOldest:
		return "created_at ASC"
	case enums.ReviewSortHighest:
		return "overall_rating DESC, created_at DESC"
	case enums.ReviewSortLowest:
		return "overall_rating ASC, created_at DESC"
	case enums.ReviewSortHelpful:
		return "helpful_count DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
