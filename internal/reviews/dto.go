package reviews

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
	"github.com/angelmondragon/gigbook-backend/pkg/pagination"
)

const (
	minRating = 1
	maxRating = 5

	minContentLength  = 10
	maxContentLength  = 1000
	maxResponseLength = 1000
)

// Ratings carries the overall score plus optional category scores, all 1-5.
type Ratings struct {
	Overall         int  `json:"overall" validate:"required,min=1,max=5"`
	Performance     *int `json:"performance,omitempty" validate:"omitempty,min=1,max=5"`
	Professionalism *int `json:"professionalism,omitempty" validate:"omitempty,min=1,max=5"`
	Reliability     *int `json:"reliability,omitempty" validate:"omitempty,min=1,max=5"`
	VenueQuality    *int `json:"venueQuality,omitempty" validate:"omitempty,min=1,max=5"`
	Payment         *int `json:"payment,omitempty" validate:"omitempty,min=1,max=5"`
}

// CreateReviewInput is the payload for leaving a review on a completed gig.
type CreateReviewInput struct {
	GigID   uuid.UUID `json:"gigId" validate:"required"`
	Ratings Ratings   `json:"ratings" validate:"required"`
	Content string    `json:"content" validate:"required,min=10,max=1000"`
	Tags    []string  `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Photos  []string  `json:"photos,omitempty" validate:"omitempty,max=10,dive,url"`
}

// RespondInput is the payload for a profile owner's reply.
type RespondInput struct {
	Response string `json:"response" validate:"required,min=1,max=1000"`
}

func (in CreateReviewInput) validate() error {
	if in.GigID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "gig id is required")
	}
	ratings := []*int{
		&in.Ratings.Overall,
		in.Ratings.Performance,
		in.Ratings.Professionalism,
		in.Ratings.Reliability,
		in.Ratings.VenueQuality,
		in.Ratings.Payment,
	}
	for _, rating := range ratings {
		if rating != nil && (*rating < minRating || *rating > maxRating) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "ratings must be between %d and %d", minRating, maxRating)
		}
	}
	length := utf8.RuneCountInString(strings.TrimSpace(in.Content))
	if length < minContentLength || length > maxContentLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "content must be between %d and %d characters", minContentLength, maxContentLength)
	}
	return nil
}

// ListParams filters and pages a profile's published reviews.
type ListParams struct {
	TargetID   uuid.UUID
	TargetType enums.ReviewTargetType
	Page       int
	Limit      int
	SortBy     enums.ReviewSort
	Rating     *int
}

// ListResult is a page of reviews.
type ListResult = pagination.Page[ReviewDTO]

// ReviewDTO is the transport shape of a review.
type ReviewDTO struct {
	ID                uuid.UUID              `json:"id"`
	ReviewerID        uuid.UUID              `json:"reviewerId"`
	ReviewerRole      enums.ReviewerRole     `json:"reviewerRole"`
	TargetType        enums.ReviewTargetType `json:"targetType"`
	TargetID          uuid.UUID              `json:"targetId"`
	GigID             uuid.UUID              `json:"gigId"`
	GigTitle          string                 `json:"gigTitle"`
	GigDate           time.Time              `json:"gigDate"`
	Ratings           Ratings                `json:"ratings"`
	Content           string                 `json:"content"`
	Tags              []string               `json:"tags"`
	Photos            []string               `json:"photos"`
	Response          *string                `json:"response,omitempty"`
	ResponseAt        *time.Time             `json:"responseAt,omitempty"`
	Status            enums.ReviewStatus     `json:"status"`
	HelpfulCount      int                    `json:"helpfulCount"`
	IsVerifiedBooking bool                   `json:"isVerifiedBooking"`
	CreatedAt         time.Time              `json:"createdAt"`
}

// HelpfulDTO reports the caller's vote after a toggle.
type HelpfulDTO struct {
	ReviewID     uuid.UUID `json:"reviewId"`
	HelpfulCount int       `json:"helpfulCount"`
	MarkedByMe   bool      `json:"markedByMe"`
}

// FromModel converts a stored review into its transport shape.
func FromModel(r *models.Review) ReviewDTO {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	photos := []string(r.Photos)
	if photos == nil {
		photos = []string{}
	}
	return ReviewDTO{
		ID:           r.ID,
		ReviewerID:   r.ReviewerID,
		ReviewerRole: r.ReviewerRole,
		TargetType:   r.TargetType,
		TargetID:     r.TargetID(),
		GigID:        r.GigID,
		GigTitle:     r.GigTitle,
		GigDate:      r.GigDate,
		Ratings: Ratings{
			Overall:         r.OverallRating,
			Performance:     r.PerformanceRating,
			Professionalism: r.ProfessionalismRating,
			Reliability:     r.ReliabilityRating,
			VenueQuality:    r.VenueQualityRating,
			Payment:         r.PaymentRating,
		},
		Content:           r.Content,
		Tags:              tags,
		Photos:            photos,
		Response:          r.Response,
		ResponseAt:        r.ResponseAt,
		Status:            r.Status,
		HelpfulCount:      r.HelpfulCount,
		IsVerifiedBooking: r.IsVerifiedBooking,
		CreatedAt:         r.CreatedAt,
	}
}

func fromModels(rows []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}
