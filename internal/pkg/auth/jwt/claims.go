package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set carried by the browser session cookie.
// The cookie only identifies the front-end session; the backend's own
// session cookie never leaves the server.
type Payload struct {
	jwt.StandardClaims

	// SessionID keys the server-side session entry.
	SessionID string `json:"sid"`
}
