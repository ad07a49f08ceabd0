package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ericfisherdev/starneighbours/internal/application"
	"github.com/ericfisherdev/starneighbours/internal/domain/model"
)

type contextKey int

const apiTokenKey contextKey = iota

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, duration and request id.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("panic recovered",
						"panic", v,
						"path", r.URL.Path,
						"request_id", chimiddleware.GetReqID(r.Context()),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// requireAPIToken admits requests carrying a registered bearer token and
// stores the matching record in the request context.
//
//   - no credential, or a scheme other than Bearer: 403
//   - unknown token: 401 with a Bearer challenge
//   - store failure: 500
func requireAPIToken(gate Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := gate.Authenticate(r.Context(), bearerToken(r))
			switch {
			case err == nil:
			case errors.Is(err, application.ErrNotAuthenticated):
				writeError(w, http.StatusForbidden, "Not authenticated")
				return
			case errors.Is(err, application.ErrInvalidCredentials):
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Invalid authentication credentials")
				return
			default:
				logger.Error("api token lookup failed", "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), apiTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively. Any other shape yields "".
func bearerToken(r *http.Request) string {
	scheme, credential, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credential)
}

// TokenFromContext returns the API token admitted by the gate, if any.
func TokenFromContext(ctx context.Context) (*model.APIToken, bool) {
	token, ok := ctx.Value(apiTokenKey).(*model.APIToken)
	return token, ok && token != nil
}
