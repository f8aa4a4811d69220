package callercontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gigbook-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

func TestResolveUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := ResolveUserID(req); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized without user, got %v", err)
	}

	nilCaller := req.WithContext(middleware.WithCaller(req.Context(), uuid.Nil))
	if _, err := ResolveUserID(nilCaller); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for nil caller, got %v", err)
	}

	userID := uuid.New()
	good := req.WithContext(middleware.WithCaller(req.Context(), userID))
	got, err := ResolveUserID(good)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s got %s", userID, got)
	}
}

func TestURLParamUUID(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("reviewId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	if _, err := URLParamUUID(withParam(""), "reviewId", "review id"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty param, got %v", err)
	}
	if _, err := URLParamUUID(withParam("nope"), "reviewId", "review id"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for malformed param, got %v", err)
	}
	id := uuid.New()
	got, err := URLParamUUID(withParam(id.String()), "reviewId", "review id")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
}
