package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/gigbook-backend/api/middleware"
	"github.com/angelmondragon/gigbook-backend/api/responses"
)

type pingResponse struct {
	Scope      string `json:"scope"`
	Status     string `json:"status"`
	RequestID  string `json:"request_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	ServerTime string `json:"server_time"`
}

// Ping reports liveness for the given route scope. Behind the auth
// middleware it also echoes the caller so clients can check their token.
func Ping(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		responses.WriteSuccess(w, pingResponse{
			Scope:      scope,
			Status:     "ok",
			RequestID:  middleware.RequestIDFromContext(ctx),
			UserID:     middleware.UserIDFromContext(ctx),
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
