/*
Package errs provides the coded errors the front end reports on its own
surfaces (the JSON endpoints and the error page).

Errors coming back from the remote backend are not coded here; they are
normalized by the api package and shown to the user as notifications.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that required form values are missing.
	// Its message takes the list of required fields.
	ErrInvalidParams = 1001

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the upload limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates too many login or register attempts from one address.
	ErrRateLimitExceeded = 1007

	// ErrNotFound indicates that no page exists at the requested path.
	ErrNotFound = 1008
)

// 2xxx: Profile Errors
const (
	// ErrNotAnImage indicates that the staged avatar file is not an image.
	ErrNotAnImage = 2001

	// ErrProfileMissing indicates an edit was attempted with no loaded profile.
	ErrProfileMissing = 2002
)

// 3xxx: Session and Security Errors
const (
	// ErrUnauthorized indicates that the browser session has no signed-in user.
	ErrUnauthorized = 3001

	// ErrCSRFTokenInvalid indicates that a form post carried a missing or stale CSRF token.
	ErrCSRFTokenInvalid = 3002

	// ErrSessionUnavailable indicates that the browser session could not be opened or restored.
	ErrSessionUnavailable = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000

	// ErrBackendUnavailable indicates that the remote backend could not be reached.
	ErrBackendUnavailable = 5001
)
