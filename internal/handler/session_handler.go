package handler

import (
	"net/http"

	"profilelounge/internal/app/domain"
	"profilelounge/internal/pkg/resp"
)

type sessionState struct {
	Authenticated bool         `json:"authenticated"`
	Loading       bool         `json:"loading"`
	Status        string       `json:"status"`
	User          *domain.User `json:"user"`
}

// HandleSessionState reports the browser's auth state as JSON.
func HandleSessionState(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := entryFromContext(r).Store.Snapshot()

		resp.RespondSuccess(w, r, sessionState{
			Authenticated: snap.Authenticated(),
			Loading:       snap.Loading,
			Status:        snap.Status.String(),
			User:          snap.User,
		})
	}
}

// HandleHealth is the liveness endpoint. It does not contact the backend.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":   "ok",
			"service":  "Profile Lounge",
			"sessions": deps.Sessions.Len(),
		})
	}
}
