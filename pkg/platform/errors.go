package platform

import (
	"errors"
	"fmt"
)

// maxErrorBody bounds the response text kept on an APIError.
const maxErrorBody = 500

// ErrPlatform matches every non-2xx response that is not a rate limit or suspension.
var ErrPlatform = errors.New("platform error")

// APIError is a generic platform failure carrying the truncated response body.
type APIError struct {
	StatusCode int
	Body       string
}

func newAPIError(status int, body []byte) *APIError {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &APIError{StatusCode: status, Body: text}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool { return target == ErrPlatform }

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
