package repository

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	gh "github.com/google/go-github/v80/github"

	"github.com/avila-roffe/ansuz/internal/apperr"
)

func ghError(status, message string) error {
	code := http.StatusInternalServerError
	switch status {
	case "404":
		code = http.StatusNotFound
	case "403":
		code = http.StatusForbidden
	}
	return &gh.ErrorResponse{
		Response: &http.Response{StatusCode: code},
		Message:  message,
	}
}

func TestWrapError_NotFound(t *testing.T) {
	err := wrapError(ghError("404", "Not Found"), "read file")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound must report true")
	}
}

func TestWrapError_APIErrorKeepsProviderMessage(t *testing.T) {
	err := wrapError(ghError("403", "API rate limit exceeded"), "list directory")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "API rate limit exceeded" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if IsNotFound(err) {
		t.Error("a 403 is not a not-found condition")
	}
}

func TestWrapError_PlainErrorsAreWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := wrapError(cause, "get branch")
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapped cause", err)
	}
}

func TestWrapError_Nil(t *testing.T) {
	if wrapError(nil, "anything") != nil {
		t.Error("nil must stay nil")
	}
}

func TestEnsureClient_MissingTokenIsLazyConfigError(t *testing.T) {
	g := NewGitHub("owner", "repo", "  ")
	_, err := g.DefaultBranch(t.Context())
	if !errors.Is(err, apperr.ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	// The result is cached; later calls must report the same error.
	_, err = g.DefaultBranch(t.Context())
	if !errors.Is(err, apperr.ErrNotConfigured) {
		t.Errorf("second call err = %v, want ErrNotConfigured", err)
	}
}

func TestEnsureClient_ConcurrentFirstUse(t *testing.T) {
	g := NewGitHub("owner", "repo", "token")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = g.ensureClient(t.Context())
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
	if g.client == nil {
		t.Error("client not initialised")
	}
}
