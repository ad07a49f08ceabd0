package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
)

// ErrTokenAlreadyExists is returned by APITokenStore.Create when the digest is
// already registered.
var ErrTokenAlreadyExists = errors.New("api token already exists")

// ErrInvalidTokenDigest is returned by APITokenStore.Create when the digest is
// not a hex SHA-256 value.
var ErrInvalidTokenDigest = errors.New("invalid api token digest")

// APITokenStore defines the driven port for API credential persistence.
// The store only ever sees digests; callers hash raw tokens with
// model.TokenDigest before calling it.
type APITokenStore interface {
	// GetByDigest returns the token registered under digest.
	// Returns nil, nil if no token matches.
	GetByDigest(ctx context.Context, digest string) (*model.APIToken, error)

	// Create registers a new token digest. Records are append-only.
	Create(ctx context.Context, name, digest, comments string) (model.APIToken, error)
}
