package auth

import (
	"strings"

	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
)

// Fallback messages shown when the API gives no usable human message
const (
	RegisterFailedMessage = "There was an error registering the user."
	LoginFailedMessage    = "Login Failed, Retry"
	RefreshFailedMessage  = "Your session has expired, please log in again"
	NetworkFailedMessage  = "Something went wrong, please try again"
)

// APIError is a failed API response. Kind is one of the internal/errors
// sentinels and is what errors.Is matches against.
type APIError struct {
	Status  int    // HTTP status code, 0 for transport failures
	Code    string // Internal code before the "|" delimiter, if any
	Message string // Human readable message, never empty
	Kind    error
	Cause   error // Underlying transport error, if any
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// ParseErrorMessage splits an API errorMessage of the form
// "<code>|<human message>". The message is the trimmed segment after the
// first delimiter; when the delimiter is missing or that segment is blank,
// fallback is returned as the message.
func ParseErrorMessage(raw, fallback string) (code string, message string) {
	parts := strings.Split(raw, "|")
	if len(parts) < 2 {
		return "", fallback
	}
	code = strings.TrimSpace(parts[0])
	message = strings.TrimSpace(parts[1])
	if message == "" {
		message = fallback
	}
	return code, message
}

// UserMessage returns the text a form should show for err
func UserMessage(err error) string {
	var apiErr *APIError
	if autherrors.As(err, &apiErr) {
		return apiErr.Message
	}
	if autherrors.Is(err, autherrors.ErrSessionExpired) || autherrors.Is(err, autherrors.ErrRefreshExpired) {
		return RefreshFailedMessage
	}
	return NetworkFailedMessage
}
