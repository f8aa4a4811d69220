package reviews

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/api/controllers/callercontext"
	"github.com/angelmondragon/gigbook-backend/api/responses"
	"github.com/angelmondragon/gigbook-backend/api/validators"
	reviewsvc "github.com/angelmondragon/gigbook-backend/internal/reviews"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/pagination"
)

const maxPage = 10000

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
}

// Create leaves a review on a completed gig for the caller.
func Create(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		userID, err := callercontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewsvc.CreateReviewInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, review)
	}
}

// Get returns a single review.
func Get(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		reviewID, err := callercontext.URLParamUUID(r, "reviewId", "review id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Get(r.Context(), reviewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ListForTarget pages the published reviews of an artist or venue. param names
// the path parameter carrying the profile id.
func ListForTarget(svc reviewsvc.Service, targetType enums.ReviewTargetType, param string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		targetID, err := callercontext.URLParamUUID(r, param, string(targetType)+" id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r, targetID, targetType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// StatsForTarget returns the aggregated review stats of an artist or venue.
func StatsForTarget(svc reviewsvc.Service, targetType enums.ReviewTargetType, param string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		targetID, err := callercontext.URLParamUUID(r, param, string(targetType)+" id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), targetID, targetType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// ListMine pages the reviews written by the caller.
func ListMine(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		userID, err := callercontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, limit, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMine(r.Context(), userID, page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Respond records the profile owner's one-time reply to a review.
func Respond(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		userID, err := callercontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewID, err := callercontext.URLParamUUID(r, "reviewId", "review id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewsvc.RespondInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Respond(r.Context(), userID, reviewID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ToggleHelpful flips the caller's helpful vote on a review.
func ToggleHelpful(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		userID, err := callercontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewID, err := callercontext.URLParamUUID(r, "reviewId", "review id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ToggleHelpful(r.Context(), userID, reviewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func listParams(r *http.Request, targetID uuid.UUID, targetType enums.ReviewTargetType) (reviewsvc.ListParams, error) {
	page, limit, err := pageParams(r)
	if err != nil {
		return reviewsvc.ListParams{}, err
	}

	sortBy, err := validators.ParseQueryEnum(r, "sortBy", enums.ParseReviewSort, enums.ReviewSorts)
	if err != nil {
		return reviewsvc.ListParams{}, err
	}

	rating, err := validators.ParseOptionalQueryInt(r, "rating", 1, 5)
	if err != nil {
		return reviewsvc.ListParams{}, err
	}

	return reviewsvc.ListParams{
		TargetID:   targetID,
		TargetType: targetType,
		Page:       page,
		Limit:      limit,
		SortBy:     sortBy,
		Rating:     rating,
	}, nil
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return 0, 0, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
