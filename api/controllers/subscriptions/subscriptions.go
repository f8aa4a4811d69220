package subscriptions

import (
	"net/http"

	"github.com/angelmondragon/gigbook-backend/api/controllers/callercontext"
	"github.com/angelmondragon/gigbook-backend/api/responses"
	subsvc "github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

// Fetch returns the caller's subscription, or the free view when none exists.
func Fetch(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := callercontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.GetForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// Features returns the feature bundle the caller is entitled to right now.
func Features(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := callercontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		features, err := svc.Features(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, features)
	}
}
