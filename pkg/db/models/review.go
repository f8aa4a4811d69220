package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/gigbook-backend/pkg/db/types"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/types"
)

// Review is feedback left by one side of a completed gig about the other side.
// Exactly one of TargetArtistID / TargetVenueID is set, selected by TargetType.
type Review struct {
	ID                    uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ReviewerID            uuid.UUID              `gorm:"column:reviewer_id;type:uuid;not null;uniqueIndex:idx_reviews_gig_reviewer,priority:2"`
	ReviewerRole          enums.ReviewerRole     `gorm:"column:reviewer_role;type:reviewer_role;not null"`
	TargetType            enums.ReviewTargetType `gorm:"column:target_type;type:review_target_type;not null"`
	TargetArtistID        *uuid.UUID             `gorm:"column:target_artist_id;type:uuid;index"`
	TargetVenueID         *uuid.UUID             `gorm:"column:target_venue_id;type:uuid;index"`
	GigID                 uuid.UUID              `gorm:"column:gig_id;type:uuid;not null;uniqueIndex:idx_reviews_gig_reviewer,priority:1"`
	GigTitle              string                 `gorm:"column:gig_title;not null"`
	GigDate               time.Time              `gorm:"column:gig_date;not null"`
	OverallRating         int                    `gorm:"column:overall_rating;not null"`
	PerformanceRating     *int                   `gorm:"column:performance_rating"`
	ProfessionalismRating *int                   `gorm:"column:professionalism_rating"`
	ReliabilityRating     *int                   `gorm:"column:reliability_rating"`
	VenueQualityRating    *int                   `gorm:"column:venue_quality_rating"`
	PaymentRating         *int                   `gorm:"column:payment_rating"`
	Content               string                 `gorm:"column:content;not null"`
	Tags                  types.StringList       `gorm:"column:tags;type:jsonb;not null;default:'[]'"`
	Photos                types.StringList       `gorm:"column:photos;type:jsonb;not null;default:'[]'"`
	Response              *string                `gorm:"column:response"`
	ResponseAt            *time.Time             `gorm:"column:response_at"`
	Status                enums.ReviewStatus     `gorm:"column:status;type:review_status;not null;default:'published'"`
	HelpfulCount          int                    `gorm:"column:helpful_count;not null;default:0"`
	HelpfulVoters         dbtypes.UUIDArray      `gorm:"type:uuid[];column:helpful_voters;not null;default:ARRAY[]::uuid[]"`
	IsVerifiedBooking     bool                   `gorm:"column:is_verified_booking;not null;default:false"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TargetID returns the populated target reference for the review's target type.
func (r Review) TargetID() uuid.UUID {
	switch r.TargetType {
	case enums.ReviewTargetArtist:
		if r.TargetArtistID != nil {
			return *r.TargetArtistID
		}
	case enums.ReviewTargetVenue:
		if r.TargetVenueID != nil {
			return *r.TargetVenueID
		}
	}
	return uuid.Nil
}
