package repository

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v80/github"

	"github.com/avila-roffe/ansuz/internal/apperr"
)

// APIError is a non-404 error response from the GitHub API. The provider
// message is preserved so it can be surfaced to the caller verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
}

// wrapError converts go-github errors into the error kinds callers
// distinguish: apperr.ErrNotFound for missing paths, *APIError for other
// provider responses, plain wrapping otherwise.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		if ghErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", operation, apperr.ErrNotFound)
		}
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &APIError{
			StatusCode: http.StatusForbidden,
			Message:    "rate limit exceeded, resets at " + rateErr.Rate.Reset.Time.String(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// IsNotFound reports whether err indicates a missing repository path.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
