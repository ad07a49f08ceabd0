// Package httphandler is the REST driving adapter. It exposes the neighbour
// query behind the API token gate and an unauthenticated health probe.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

// NeighbourFinder runs the neighbour query. Satisfied by application.NeighbourService.
type NeighbourFinder interface {
	FindNeighbours(ctx context.Context, owner, repo string) ([]model.Neighbour, error)
}

// Authenticator resolves a raw bearer token. Satisfied by application.AccessGate.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*model.APIToken, error)
}

// HealthChecker reports whether the credential store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	finder       NeighbourFinder
	gate         Authenticator
	health       HealthChecker
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewHandler creates a Handler. health may be nil, in which case the health
// endpoint always reports ok. A zero queryTimeout disables the query deadline.
func NewHandler(
	finder NeighbourFinder,
	gate Authenticator,
	health HealthChecker,
	queryTimeout time.Duration,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		finder:       finder,
		gate:         gate,
		health:       health,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// NewRouter creates an http.Handler with all routes registered and wrapped
// with request id, logging and recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(loggingMiddleware(logger))
	// Recovery innermost so panics are logged with the status they produced.
	r.Use(recoveryMiddleware(logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(requireAPIToken(h.gate, logger))
			r.Get("/repos/{owner}/{repo}/starneighbours", h.StarNeighbours)
		})
	})

	return r
}

// StarNeighbours returns every repository sharing at least one stargazer with
// the repository in the path.
func (h *Handler) StarNeighbours(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	if !isValidRepoPart(owner) || !isValidRepoPart(repo) {
		writeError(w, http.StatusBadRequest, "invalid repository name: expected owner/repo format")
		return
	}

	ctx := r.Context()
	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	neighbours, err := h.finder.FindNeighbours(ctx, owner, repo)
	if err != nil {
		h.writeQueryError(ctx, w, r, owner+"/"+repo, err)
		return
	}

	writeJSON(w, http.StatusOK, toNeighbourResponses(neighbours))
}

// writeQueryError maps a failed neighbour query to its response. Upstream
// status and body are logged, never returned to the caller. Only the expiry
// of queryCtx itself is a gateway timeout; a single slow page is an upstream error.
func (h *Handler) writeQueryError(queryCtx context.Context, w http.ResponseWriter, r *http.Request, target string, err error) {
	var (
		rateErr *driven.RateLimitError
		provErr *driven.ProviderError
	)

	switch {
	case errors.As(err, &rateErr):
		h.logger.Warn("github rate limit exceeded", "repo", target, "reset", rateErr.Reset)
		retryAfter := int64(time.Until(rateErr.ResetTime()).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rateErr.Reset, 10))
		writeError(w, http.StatusTooManyRequests,
			"GitHub API rate limit exceeded. Reset at "+strconv.FormatInt(rateErr.Reset, 10))

	case errors.Is(queryCtx.Err(), context.DeadlineExceeded):
		h.logger.Warn("neighbour query timed out", "repo", target, "timeout", h.queryTimeout, "error", err)
		writeError(w, http.StatusGatewayTimeout, "upstream query timed out")

	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		h.logger.Info("client went away during neighbour query", "repo", target)

	case errors.As(err, &provErr):
		h.logger.Error("github api error",
			"repo", target,
			"status", provErr.StatusCode,
			"body", provErr.Body,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Error fetching data from GitHub API")

	default:
		h.logger.Error("neighbour query failed", "repo", target, "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching data from GitHub API")
	}
}

// Health pings the credential store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// isValidRepoPart reports whether s is a usable owner or repository name:
// non-empty, only alphanumerics, hyphens, dots or underscores, and not a
// relative path segment.
func isValidRepoPart(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, ch := range s {
		if !isValidRepoChar(ch) {
			return false
		}
	}
	return true
}

// isValidRepoChar returns true if the rune is allowed in a repository owner or name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
