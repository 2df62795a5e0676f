package errs

import (
	"fmt"
	"net/http"
	"strings"

	"profilelounge/internal/pkg/logx"
)

// CustomError carries a coded error raised by the front end itself.
type CustomError struct {
	// Code is the business error code (see error_codes.go).
	Code int

	// Message is shown to the user as is.
	Message string

	// Status is the HTTP status written with the error.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a predefined code.
// Unknown codes degrade to ErrUnknown. For ErrUnknown the first detail may be
// the underlying error, which is logged; for other codes details are used as
// printf arguments when the message has placeholders.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Error details ignored, message has no placeholders", "code", code)
		}
	}

	return &customErr
}
