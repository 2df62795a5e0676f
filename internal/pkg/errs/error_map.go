package errs

import "net/http"

// errorMap holds the user-facing message and HTTP status for every code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Please fill in the required fields: %s.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrNotFound:              {Code: ErrNotFound, Message: "Page not found.", Status: http.StatusNotFound},

	// 2xxx: Profile Errors
	ErrNotAnImage:     {Code: ErrNotAnImage, Message: "Please choose an image file.", Status: http.StatusBadRequest},
	ErrProfileMissing: {Code: ErrProfileMissing, Message: "Profile not found.", Status: http.StatusConflict},

	// 3xxx: Session and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrCSRFTokenInvalid:   {Code: ErrCSRFTokenInvalid, Message: "Your form expired. Please reload the page and try again.", Status: http.StatusForbidden},
	ErrSessionUnavailable: {Code: ErrSessionUnavailable, Message: "Your session could not be loaded. Please try again.", Status: http.StatusServiceUnavailable},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrBackendUnavailable: {Code: ErrBackendUnavailable, Message: "The service is unreachable right now. Please try again later.", Status: http.StatusBadGateway},
}
