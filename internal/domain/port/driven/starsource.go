package driven

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
)

// ErrMissingGitHubToken is returned when a StarSource adapter is constructed
// without an upstream credential.
var ErrMissingGitHubToken = errors.New("github token is required")

// StarSource defines the driven port for reading star relationships from GitHub.
// Both methods follow pagination to completion and return either the full
// collection, a *RateLimitError, or a *ProviderError.
type StarSource interface {
	// FetchStargazers returns every user who starred owner/repo, in the order
	// GitHub returned them.
	FetchStargazers(ctx context.Context, owner, repo string) ([]model.User, error)

	// FetchStarredRepositories returns every repository starred by login, in
	// the order GitHub returned them.
	FetchStarredRepositories(ctx context.Context, login string) ([]model.Repository, error)
}

// RateLimitError reports that GitHub throttled the request. Reset is the
// epoch second at which the quota is restored.
type RateLimitError struct {
	Reset int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github rate limit exceeded, reset at %d", e.Reset)
}

// ResetTime returns Reset as a time.Time.
func (e *RateLimitError) ResetTime() time.Time {
	return time.Unix(e.Reset, 0).UTC()
}

// ProviderError reports any other failed GitHub call. StatusCode is 0 when no
// HTTP response was received (network failure, timeout, cancellation); Err
// then carries the cause.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github api error: %v", e.Err)
	}
	return fmt.Sprintf("github api error: %d - %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
