/*
Package api is the front end's only contact point with the profile backend.

Client is the capability set the rest of the application depends on.
HTTPClient implements it over the backend's REST endpoints with a
per-instance cookie jar, so each browser session carries its own backend
session cookie. Every mutating call either returns the parsed payload or a
*RequestError whose message is already fit for display; the failure has
also been pushed to the client's notifier. The two read-only probes,
CurrentUser and Profile, never notify: they degrade to "absent".
*/
package api

import (
	"context"
	"errors"
	"fmt"

	"profilelounge/internal/app/domain"
)

// Client is the set of backend operations the front end uses.
type Client interface {
	// Login authenticates and establishes the backend session cookie.
	Login(ctx context.Context, username, password string) (*domain.LoginResult, error)

	// Register creates an account. It does not sign the user in.
	Register(ctx context.Context, input domain.RegisterInput) (string, error)

	// Logout ends the backend session.
	Logout(ctx context.Context) (string, error)

	// CurrentUser probes the backend session. It returns (nil, nil) when the
	// backend answers 401, and (nil, error wrapping ErrUnreachable) for any
	// other failure; callers treat both as "no user".
	CurrentUser(ctx context.Context) (*domain.User, error)

	// Profile returns the first profile of the backend's list, (nil, nil)
	// when the list is empty or the session is unauthenticated, and
	// (nil, error wrapping ErrUnreachable) for any other failure.
	Profile(ctx context.Context) (*domain.Profile, error)

	// UpdateProfile sends a partial multipart update and returns the stored profile.
	UpdateProfile(ctx context.Context, profileID int64, update domain.ProfileUpdate) (*domain.Profile, error)
}

// ErrUnreachable marks a probe that failed for a reason other than missing
// authentication: transport errors, 5xx replies, unexpected bodies.
var ErrUnreachable = errors.New("backend unreachable")

// RequestError is a failed backend call with a display-ready message.
// Status is 0 when the request never got a response.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == 401
}
