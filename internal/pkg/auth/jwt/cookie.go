package jwt

import (
	"context"
	"net/http"

	"profilelounge/internal/pkg/logx"
)

// CookieName is the name of the browser session cookie.
const CookieName = "lounge_session"

type contextKey string

// ContextPayloadKey stores the parsed *Payload in the request context.
const ContextPayloadKey contextKey = "session_payload"

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Secret string
	Secure bool
}

// SetSessionCookie signs sessionID and writes it as an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, sessionID string, opts CookieOptions) error {
	token, err := GenerateToken(&Payload{SessionID: sessionID}, opts.Secret, SessionCookieExpiration)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionCookieExpiration.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// SessionExtractorMiddleware parses the session cookie and stores the payload
// in the request context. A missing or invalid cookie is not an error: the
// request continues without a payload and a new session is issued downstream.
func SessionExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(cookie.Value, secretKey)
			if err != nil {
				logx.Warn("Invalid session cookie, starting a new session", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext returns the session payload, or nil when the request carried none.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}
