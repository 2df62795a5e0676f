package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"profilelounge/internal/app/nav"
	"profilelounge/internal/app/session"
	"profilelounge/internal/pkg/auth/jwt"
	"profilelounge/internal/pkg/errs"
	"profilelounge/internal/pkg/logx"
	"profilelounge/internal/pkg/req"
)

type contextKey string

const entryContextKey contextKey = "session_entry"

// CSRFHeader may carry the token instead of the csrf_token form field.
const CSRFHeader = "X-CSRF-Token"

// SessionMiddleware attaches the browser's session entry to the request,
// issuing a new session cookie when the entry was just created. It must run
// after jwt.SessionExtractorMiddleware.
func SessionMiddleware(deps *AppDeps) func(next http.Handler) http.Handler {
	cookieOpts := jwt.CookieOptions{
		Secret: deps.Config.SessionSecret,
		Secure: deps.Config.CookieSecure,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if payload := jwt.GetPayloadFromContext(r); payload != nil {
				id = payload.SessionID
			}

			entry, created, err := deps.Sessions.Open(r.Context(), id)
			if err != nil {
				logx.Error(err, "Failed to open session")
				renderError(w, r, errs.NewError(errs.ErrSessionUnavailable))
				return
			}

			if created {
				if err := jwt.SetSessionCookie(w, entry.ID, cookieOpts); err != nil {
					logx.Error(err, "Failed to issue session cookie")
					renderError(w, r, errs.NewError(errs.ErrUnknown))
					return
				}
				logx.Debug("Session created", "session_id", entry.ID)
			}

			ctx := context.WithValue(r.Context(), entryContextKey, entry)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func entryFromContext(r *http.Request) *session.Entry {
	entry, _ := r.Context().Value(entryContextKey).(*session.Entry)
	return entry
}

// CSRFMiddleware parses form posts and rejects those whose token does not
// match the session's. Safe methods pass through.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		entry := entryFromContext(r)
		if entry == nil {
			renderError(w, r, errs.NewError(errs.ErrSessionUnavailable))
			return
		}

		if customErr := req.ParseForm(w, r); customErr != nil {
			renderError(w, r, customErr)
			return
		}

		token := r.Header.Get(CSRFHeader)
		if token == "" {
			token = r.PostFormValue("csrf_token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(entry.CSRFToken)) != 1 {
			logx.Warn("CSRF token mismatch", "path", r.URL.Path)
			renderError(w, r, errs.NewError(errs.ErrCSRFTokenInvalid))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// guard applies nav.Guard for route. It writes the redirect or the loading
// page itself and reports whether the handler should go on rendering.
func guard(w http.ResponseWriter, r *http.Request, entry *session.Entry, route nav.Route, title string) (session.Snapshot, bool) {
	snap := entry.Store.Snapshot()

	decision := nav.Guard(route, snap)
	switch {
	case decision.Wait:
		renderLoading(w, r, title)
		return snap, false
	case decision.Redirect != "":
		redirect(w, r, decision.Redirect)
		return snap, false
	}

	return snap, true
}
