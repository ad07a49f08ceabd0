// Package github implements the StarSource port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

const (
	// DefaultPageSize is the largest page GitHub serves for starring endpoints.
	DefaultPageSize = 100
	// DefaultMaxPages bounds pagination against a misbehaving upstream.
	// At 100 items per page this is far beyond any real listing.
	DefaultMaxPages = 100_000
	// DefaultPageTimeout bounds a single page request.
	DefaultPageTimeout = 30 * time.Second

	headerRateReset = "X-RateLimit-Reset"

	maxErrorBody = 64 << 10
)

// Compile-time interface satisfaction check.
var _ driven.StarSource = (*Client)(nil)

// Client implements the driven.StarSource port using the go-github library.
type Client struct {
	gh          *gh.Client
	pageSize    int
	maxPages    int
	pageTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize sets the number of items requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages sets the pagination ceiling. At most n requests are made per listing.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithPageTimeout sets the timeout applied to each page request. Zero disables it.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.pageTimeout = d
	}
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. go-github-ratelimit primary limiter (fails fast while a quota is exhausted)
//  2. httpcache (ETag-based conditional request caching)
//  3. oauth2 (static bearer token on every request)
//
// Rate limits are reported to the caller as driven.RateLimitError and never
// slept on. It returns driven.ErrMissingGitHubToken when token is empty.
func NewClient(token string, opts ...Option) (*Client, error) {
	return NewClientWithTransport(http.DefaultTransport, "", token, opts...)
}

// NewClientWithTransport creates a Client whose production transport stack
// sends requests through base. An empty baseURL keeps the public GitHub API.
func NewClientWithTransport(base http.RoundTripper, baseURL, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, driven.ErrMissingGitHubToken
	}

	client := gh.NewClient(&http.Client{Transport: newTransport(base, token)})
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		client.BaseURL = u
	}

	return newClient(client, opts...), nil
}

// newTransport layers the rate limiter over the cache over token auth.
// There is no secondary limiter: rate limits go back to the caller, never slept on.
func newTransport(base http.RoundTripper, token string) http.RoundTripper {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = &oauth2.Transport{
		Base:   base,
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}

	return github_ratelimit.NewPrimaryLimiter(cacheTransport,
		github_primary_ratelimit.WithLimitDetectedCallback(func(cb *github_primary_ratelimit.CallbackContext) {
			slog.Warn("github primary rate limit reached",
				"category", cb.Category,
				"reset", cb.ResetTime,
			)
		}),
	)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, driven.ErrMissingGitHubToken
	}

	client := gh.NewClient(httpClient).WithAuthToken(token)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return newClient(client, opts...), nil
}

func newClient(client *gh.Client, opts ...Option) *Client {
	c := &Client{
		gh:          client,
		pageSize:    DefaultPageSize,
		maxPages:    DefaultMaxPages,
		pageTimeout: DefaultPageTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchStargazers retrieves every user who starred owner/repo.
// It handles pagination automatically and maps go-github types to domain model types.
func (c *Client) FetchStargazers(ctx context.Context, owner, repo string) ([]model.User, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/stargazers", owner, repo)

	stargazers, err := paginate(ctx, c, endpoint, func(ctx context.Context, opts gh.ListOptions) ([]*gh.Stargazer, *gh.Response, error) {
		return c.gh.Activity.ListStargazers(ctx, owner, repo, &opts)
	})
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(stargazers))
	for _, s := range stargazers {
		users = append(users, model.User{Login: s.GetUser().GetLogin()})
	}
	return users, nil
}

// FetchStarredRepositories retrieves every repository starred by login.
// It handles pagination automatically and maps go-github types to domain model types.
func (c *Client) FetchStarredRepositories(ctx context.Context, login string) ([]model.Repository, error) {
	endpoint := fmt.Sprintf("/users/%s/starred", login)

	starred, err := paginate(ctx, c, endpoint, func(ctx context.Context, opts gh.ListOptions) ([]*gh.StarredRepository, *gh.Response, error) {
		return c.gh.Activity.ListStarred(ctx, login, &gh.ActivityListStarredOptions{ListOptions: opts})
	})
	if err != nil {
		return nil, err
	}

	repos := make([]model.Repository, 0, len(starred))
	for _, s := range starred {
		repos = append(repos, mapRepository(s.GetRepository()))
	}
	return repos, nil
}

// paginate requests pages 1, 2, ... of a listing until a page comes back
// shorter than the page size or the page ceiling is reached.
// Items are concatenated in request order.
func paginate[T any](
	ctx context.Context,
	c *Client,
	endpoint string,
	fetch func(ctx context.Context, opts gh.ListOptions) ([]T, *gh.Response, error),
) ([]T, error) {
	var all []T

	for page := 1; page <= c.maxPages; page++ {
		pageCtx, cancel := c.pageContext(ctx)
		items, resp, err := fetch(pageCtx, gh.ListOptions{Page: page, PerPage: c.pageSize})
		if err != nil {
			err = translateError(endpoint, page, resp, err)
			cancel()
			return nil, err
		}
		cancel()

		logRateLimit(resp, endpoint, page, len(items))

		all = append(all, items...)

		if len(items) < c.pageSize {
			return all, nil
		}
	}

	slog.Warn("github pagination ceiling reached",
		"endpoint", endpoint,
		"max_pages", c.maxPages,
		"items", len(all),
	)
	return all, nil
}

func (c *Client) pageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.pageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.pageTimeout)
}

// translateError maps a failed go-github call to a domain error.
// A forbidden (or too-many-requests) response carrying a reset header is a rate
// limit even though its status alone would classify it as a generic failure.
func translateError(endpoint string, page int, resp *gh.Response, err error) error {
	if resp != nil && resp.Response != nil && isThrottleStatus(resp.StatusCode) {
		if v := resp.Header.Get(headerRateReset); v != "" {
			if reset, parseErr := strconv.ParseInt(v, 10, 64); parseErr == nil {
				return &driven.RateLimitError{Reset: reset}
			}
		}
	}

	// go-github short-circuits requests after a response exhausted the quota,
	// returning a synthesized response without headers.
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &driven.RateLimitError{Reset: rateErr.Rate.Reset.Unix()}
	}

	// The primary limiter answers without a response once a quota is exhausted.
	var primaryErr *github_primary_ratelimit.RateLimitReachedError
	if errors.As(err, &primaryErr) {
		return &driven.RateLimitError{Reset: primaryReset(primaryErr)}
	}

	// go-github blocks requests during a secondary limit it has already seen.
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return &driven.RateLimitError{Reset: time.Now().Add(*abuseErr.RetryAfter).Unix()}
	}

	provErr := &driven.ProviderError{
		Err: fmt.Errorf("listing %s (page %d): %w", endpoint, page, err),
	}
	if resp != nil && resp.Response != nil {
		provErr.StatusCode = resp.StatusCode
		provErr.Body = readBody(resp.Body)
	}
	if provErr.Body == "" {
		var errResp *gh.ErrorResponse
		if errors.As(err, &errResp) {
			provErr.Body = errResp.Message
		}
	}
	return provErr
}

func primaryReset(err *github_primary_ratelimit.RateLimitReachedError) int64 {
	if err.ResetTime != nil {
		return err.ResetTime.Unix()
	}
	if err.Response != nil {
		if reset, parseErr := strconv.ParseInt(err.Response.Header.Get(headerRateReset), 10, 64); parseErr == nil {
			return reset
		}
	}
	return 0
}

func isThrottleStatus(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}

// readBody returns the (re-populated) error body go-github leaves on the response.
func readBody(body io.ReadCloser) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}
	return string(data)
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// mapRepository converts a go-github Repository to a domain model Repository.
// It uses GetXxx() helper methods to avoid nil pointer panics.
func mapRepository(r *gh.Repository) model.Repository {
	if r == nil {
		return model.Repository{}
	}

	var description *string
	if r.Description != nil {
		d := r.GetDescription()
		description = &d
	}

	return model.Repository{
		FullName:        r.GetFullName(),
		Name:            r.GetName(),
		Description:     description,
		HTMLURL:         r.GetHTMLURL(),
		StargazersCount: r.GetStargazersCount(),
	}
}
