package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/internal/profiles"
	"github.com/angelmondragon/gigbook-backend/pkg/db"
	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
	"github.com/angelmondragon/gigbook-backend/pkg/pagination"
	"github.com/angelmondragon/gigbook-backend/pkg/push"
	"github.com/angelmondragon/gigbook-backend/pkg/redis"
)

const reviewUniqueIndex = "idx_reviews_gig_reviewer"

var reviewUniqueColumns = []string{"reviews.gig_id", "reviews.reviewer_id"}

type gigReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

type userReader interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	PushToken(ctx context.Context, id uuid.UUID) (*string, error)
}

type profileStore interface {
	FindVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	ArtistOwners(ctx context.Context, artistIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	OwnerOf(ctx context.Context, targetType enums.ReviewTargetType, id uuid.UUID) (uuid.UUID, error)
	UpdateRatingSummaryWithTx(ctx context.Context, tx *gorm.DB, targetType enums.ReviewTargetType, id uuid.UUID, summary profiles.RatingSummary) error
}

// StatsCache is the read-through store for aggregated profile stats.
type StatsCache interface {
	redis.Cache
	StatsKey(targetType, targetID string) string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the review surface.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	Get(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (*ListResult, error)
	Stats(ctx context.Context, targetID uuid.UUID, targetType enums.ReviewTargetType) (*Stats, error)
	Respond(ctx context.Context, userID, reviewID uuid.UUID, input RespondInput) (*ReviewDTO, error)
	ToggleHelpful(ctx context.Context, userID, reviewID uuid.UUID) (*HelpfulDTO, error)
}

// ServiceParams groups dependencies for the review service.
type ServiceParams struct {
	Repo              *Repository
	Gigs              gigReader
	Users             userReader
	Profiles          profileStore
	TransactionRunner txRunner
	Cache             StatsCache
	CacheTTL          time.Duration
	Push              push.Sender
	Metrics           *metrics.ReviewMetrics
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	repo     *Repository
	reviewed func(ctx context.Context, gigID, reviewerID uuid.UUID) (bool, error)
	gigs     gigReader
	users    userReader
	profiles profileStore
	txRunner txRunner
	cache    StatsCache
	cacheTTL time.Duration
	push     push.Sender
	metrics  *metrics.ReviewMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a review service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repo required")
	}
	if params.Gigs == nil {
		return nil, fmt.Errorf("gig repo required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repo required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	sender := params.Push
	if sender == nil {
		sender = push.Disabled{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		reviewed: params.Repo.ExistsForGigReviewer,
		gigs:     params.Gigs,
		users:    params.Users,
		profiles: params.Profiles,
		txRunner: params.TransactionRunner,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		push:     sender,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	gig, err := s.gigs.FindByID(ctx, input.GigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gig not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gig")
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if gig.Status != enums.GigStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gig must be completed before it can be reviewed")
	}

	review, err := s.draftReview(ctx, userID, gig)
	if err != nil {
		return nil, err
	}

	already, err := s.reviewed(ctx, gig.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if already {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this gig")
	}

	review.OverallRating = input.Ratings.Overall
	review.PerformanceRating = input.Ratings.Performance
	review.ProfessionalismRating = input.Ratings.Professionalism
	review.ReliabilityRating = input.Ratings.Reliability
	review.VenueQualityRating = input.Ratings.VenueQuality
	review.PaymentRating = input.Ratings.Payment
	review.Content = strings.TrimSpace(input.Content)
	review.Tags = cleanTags(input.Tags)
	review.Photos = append([]string{}, input.Photos...)

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			// A concurrent create can pass the check above; the index decides.
			if db.IsUniqueViolation(err, reviewUniqueIndex, reviewUniqueColumns...) {
				return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this gig")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
		}
		return s.refreshSummary(ctx, tx, review.TargetType, review.TargetID())
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, review.TargetType, review.TargetID())
	s.metrics.IncCreated(string(review.TargetType))
	s.notifyTargetOwner(ctx, review)

	dto := FromModel(review)
	return &dto, nil
}

// draftReview resolves the reviewer's role and the reviewed profile from the gig.
func (s *service) draftReview(ctx context.Context, userID uuid.UUID, gig *models.Gig) (*models.Review, error) {
	review := &models.Review{
		ID:                uuid.New(),
		ReviewerID:        userID,
		GigID:             gig.ID,
		GigTitle:          gig.Title,
		GigDate:           gig.Date,
		Status:            enums.ReviewStatusPublished,
		HelpfulVoters:     []uuid.UUID{},
		IsVerifiedBooking: true,
	}

	venue, err := s.profiles.FindVenue(ctx, gig.VenueID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load venue")
	}
	if venue != nil && venue.UserID == userID {
		if len(gig.BookedArtistIDs) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gig has no booked artist to review")
		}
		artistID := gig.BookedArtistIDs[0]
		review.ReviewerRole = enums.ReviewerRoleVenue
		review.TargetType = enums.ReviewTargetArtist
		review.TargetArtistID = &artistID
		return review, nil
	}

	owners, err := s.profiles.ArtistOwners(ctx, gig.BookedArtistIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booked artists")
	}
	for _, artistID := range gig.BookedArtistIDs {
		if owners[artistID] == userID {
			venueID := gig.VenueID
			review.ReviewerRole = enums.ReviewerRoleArtist
			review.TargetType = enums.ReviewTargetVenue
			review.TargetVenueID = &venueID
			return review, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only participants of the gig can review it")
}

// refreshSummary recomputes the target's aggregate from its published reviews
// and writes it onto the profile row.
func (s *service) refreshSummary(ctx context.Context, tx *gorm.DB, targetType enums.ReviewTargetType, targetID uuid.UUID) error {
	rows, err := s.repo.WithTx(tx).PublishedForTarget(ctx, targetType, targetID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load published reviews")
	}
	stats := Aggregate(rows)
	summary := profiles.RatingSummary{
		AverageRating:    stats.AverageRating,
		TotalReviews:     stats.TotalReviews,
		ReliabilityScore: ReliabilityScore(stats),
	}
	if err := s.profiles.UpdateRatingSummaryWithTx(ctx, tx, targetType, targetID, summary); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile rating")
	}
	return nil
}

func (s *service) Get(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(review)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.TargetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target id is required")
	}
	if !params.TargetType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target type must be artist or venue")
	}
	if params.Rating != nil && (*params.Rating < minRating || *params.Rating > maxRating) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "rating filter must be between %d and %d", minRating, maxRating)
	}
	sort := params.SortBy
	if sort == "" {
		sort = enums.ReviewSortNewest
	}
	if !sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort")
	}

	page := pagination.Normalize(pagination.Params{Page: params.Page, Limit: params.Limit})
	rows, total, err := s.repo.ListPublished(ctx, ListQuery{
		TargetType: params.TargetType,
		TargetID:   params.TargetID,
		Sort:       sort,
		Rating:     params.Rating,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return pageOf(rows, total, page), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	p := pagination.Normalize(pagination.Params{Page: page, Limit: limit})
	rows, total, err := s.repo.ListByReviewer(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list my reviews")
	}
	return pageOf(rows, total, p), nil
}

func pageOf(rows []models.Review, total int64, p pagination.Params) *ListResult {
	return pagination.NewPage(fromModels(rows), total, p)
}

func (s *service) Stats(ctx context.Context, targetID uuid.UUID, targetType enums.ReviewTargetType) (*Stats, error) {
	if targetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target id is required")
	}
	if !targetType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target type must be artist or venue")
	}

	if cached, ok := s.cachedStats(ctx, targetType, targetID); ok {
		return cached, nil
	}

	rows, err := s.repo.PublishedForTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load published reviews")
	}
	stats := Aggregate(rows)
	s.storeStats(ctx, targetType, targetID, stats)
	return &stats, nil
}

func (s *service) cachedStats(ctx context.Context, targetType enums.ReviewTargetType, targetID uuid.UUID) (*Stats, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.StatsKey(string(targetType), targetID.String()))
	if err != nil {
		if !redis.IsMiss(err) {
			s.logDegraded(ctx, "reviews.stats_cache_read_failed", err)
		}
		s.metrics.ObserveCache(false)
		return nil, false
	}
	var stats Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		s.logDegraded(ctx, "reviews.stats_cache_decode_failed", err)
		s.metrics.ObserveCache(false)
		return nil, false
	}
	s.metrics.ObserveCache(true)
	return &stats, true
}

func (s *service) storeStats(ctx context.Context, targetType enums.ReviewTargetType, targetID uuid.UUID, stats Stats) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		s.logDegraded(ctx, "reviews.stats_cache_encode_failed", err)
		return
	}
	if err := s.cache.Set(ctx, s.cache.StatsKey(string(targetType), targetID.String()), string(payload), s.cacheTTL); err != nil {
		s.logDegraded(ctx, "reviews.stats_cache_write_failed", err)
	}
}

func (s *service) invalidateStats(ctx context.Context, targetType enums.ReviewTargetType, targetID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.StatsKey(string(targetType), targetID.String())); err != nil {
		if s.logg != nil {
			ctx = s.logg.WithTarget(ctx, string(targetType), targetID.String())
		}
		s.logDegraded(ctx, "reviews.stats_cache_invalidate_failed", err)
	}
}

func (s *service) Respond(ctx context.Context, userID, reviewID uuid.UUID, input RespondInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	response := strings.TrimSpace(input.Response)
	if response == "" || utf8.RuneCountInString(response) > maxResponseLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "response must be between 1 and %d characters", maxResponseLength)
	}

	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Response != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "review already has a response")
	}
	owner, err := s.profiles.OwnerOf(ctx, review.TargetType, review.TargetID())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviewed profile")
	}
	if err != nil || owner != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the reviewed profile owner can respond")
	}

	at := s.now().UTC()
	affected, err := s.repo.SetResponseIfAbsent(ctx, review.ID, response, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store response")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "review already has a response")
	}
	review.Response = &response
	review.ResponseAt = &at

	s.notify(ctx, review.ReviewerID, push.Notification{
		Title: "New response to your review",
		Body:  truncate(response, 120),
		Data: map[string]string{
			"type":     "review_response",
			"reviewId": review.ID.String(),
		},
	})

	dto := FromModel(review)
	return &dto, nil
}

func (s *service) ToggleHelpful(ctx context.Context, userID, reviewID uuid.UUID) (*HelpfulDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if reviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}

	var result *HelpfulDTO
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := repo.FindByIDForUpdate(ctx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}
		marked := toggleVoter(review, userID)
		if err := repo.UpdateHelpful(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update helpful votes")
		}
		result = &HelpfulDTO{ReviewID: review.ID, HelpfulCount: review.HelpfulCount, MarkedByMe: marked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// toggleVoter flips the user's membership in the voter set and reports whether
// the user is a voter afterwards.
func toggleVoter(review *models.Review, userID uuid.UUID) bool {
	if review.HelpfulVoters.Contains(userID) {
		review.HelpfulVoters = review.HelpfulVoters.Without(userID)
		review.HelpfulCount--
		if review.HelpfulCount < 0 {
			review.HelpfulCount = 0
		}
		return false
	}
	review.HelpfulVoters = append(review.HelpfulVoters, userID)
	review.HelpfulCount++
	return true
}

func (s *service) loadReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	if reviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func (s *service) notifyTargetOwner(ctx context.Context, review *models.Review) {
	if s.logg != nil {
		ctx = s.logg.WithTarget(ctx, string(review.TargetType), review.TargetID().String())
		ctx = s.logg.WithReviewID(ctx, review.ID.String())
	}
	owner, err := s.profiles.OwnerOf(ctx, review.TargetType, review.TargetID())
	if err != nil {
		s.logDegraded(ctx, "reviews.notify_owner_lookup_failed", err)
		return
	}
	s.notify(ctx, owner, push.Notification{
		Title: "You received a new review",
		Body:  fmt.Sprintf("%d-star review for %s", review.OverallRating, review.GigTitle),
		Data: map[string]string{
			"type":     "new_review",
			"reviewId": review.ID.String(),
		},
	})
}

// notify delivers a push message to the user. Failures never reach the caller.
func (s *service) notify(ctx context.Context, userID uuid.UUID, n push.Notification) {
	if !s.push.Enabled() {
		return
	}
	token, err := s.users.PushToken(ctx, userID)
	if err != nil {
		s.logDegraded(ctx, "reviews.push_token_lookup_failed", err)
		return
	}
	if token == nil || strings.TrimSpace(*token) == "" {
		return
	}
	n.Tokens = []string{*token}
	if err := s.push.Send(ctx, n); err != nil {
		s.metrics.IncPushFailure()
		s.logDegraded(ctx, "reviews.push_failed", err)
	}
}

// logDegraded reports side-effect failures that never fail the request.
func (s *service) logDegraded(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.WarnErr(ctx, msg, err)
}

func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit]) + "…"
}
