package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// ErrUnknownTarget is returned for an unsupported review target type.
var ErrUnknownTarget = errors.New("unknown profile type")

// Repository manages artist and venue profiles.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
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

// FindArtist loads an artist profile.
func (r *Repository) FindArtist(ctx context.Context, id uuid.UUID) (*models.Artist, error) {
	var artist models.Artist
	if err := r.db.WithContext(ctx).First(&artist, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &artist, nil
}

// FindVenue loads a venue profile.
func (r *Repository) FindVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).First(&venue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

// OwnerOf returns the owning user of the profile referenced by a review target.
func (r *Repository) OwnerOf(ctx context.Context, targetType enums.ReviewTargetType, id uuid.UUID) (uuid.UUID, error) {
	switch targetType {
	case enums.ReviewTargetArtist:
		artist, err := r.FindArtist(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return artist.UserID, nil
	case enums.ReviewTargetVenue:
		venue, err := r.FindVenue(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return venue.UserID, nil
	default:
		return uuid.Nil, ErrUnknownTarget
	}
}

// ArtistOwners maps each listed artist id to its owning user.
func (r *Repository) ArtistOwners(ctx context.Context, artistIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	owners := make(map[uuid.UUID]uuid.UUID, len(artistIDs))
	if len(artistIDs) == 0 {
		return owners, nil
	}
	var artists []models.Artist
	if err := r.db.WithContext(ctx).
		Select("id", "user_id").
		Where("id IN ?", artistIDs).
		Find(&artists).Error; err != nil {
		return nil, err
	}
	for _, artist := range artists {
		owners[artist.ID] = artist.UserID
	}
	return owners, nil
}

// RatingSummary is the denormalized review aggregate written onto a profile.
type RatingSummary struct {
	AverageRating    float64
	TotalReviews     int
	ReliabilityScore float64
}

// UpdateRatingSummary writes the aggregate onto the target profile. The
// reliability score only applies to artists.
func (r *Repository) UpdateRatingSummary(ctx context.Context, targetType enums.ReviewTargetType, id uuid.UUID, summary RatingSummary) error {
	updates := map[string]any{
		"average_rating": summary.AverageRating,
		"total_reviews":  summary.TotalReviews,
	}
	var model any
	switch targetType {
	case enums.ReviewTargetArtist:
		updates["reliability_score"] = summary.ReliabilityScore
		model = &models.Artist{}
	case enums.ReviewTargetVenue:
		model = &models.Venue{}
	default:
		return ErrUnknownTarget
	}
	return r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates).Error
}

// CreateArtist inserts an artist profile, assigning an id when absent.
func (r *Repository) CreateArtist(ctx context.Context, artist *models.Artist) error {
	if artist.ID == uuid.Nil {
		artist.ID = uuid.New()
	}
	if artist.ReliabilityScore == 0 {
		artist.ReliabilityScore = 100
	}
	return r.db.WithContext(ctx).Create(artist).Error
}

// CreateVenue inserts a venue profile, assigning an id when absent.
func (r *Repository) CreateVenue(ctx context.Context, venue *models.Venue) error {
	if venue.ID == uuid.Nil {
		venue.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(venue).Error
}

// UpdateRatingSummaryWithTx writes the aggregate inside an open transaction.
func (r *Repository) UpdateRatingSummaryWithTx(ctx context.Context, tx *gorm.DB, targetType enums.ReviewTargetType, id uuid.UUID, summary RatingSummary) error {
	return r.WithTx(tx).UpdateRatingSummary(ctx, targetType, id, summary)
}
