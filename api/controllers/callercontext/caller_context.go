package callercontext

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

// ResolveUserID extracts the authenticated caller seeded by the auth middleware.
func ResolveUserID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

// URLParamUUID parses a required uuid path parameter.
func URLParamUUID(r *http.Request, name, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
