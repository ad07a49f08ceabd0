package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

// ErrAccessDenied is the parent of every access gate rejection.
var ErrAccessDenied = errors.New("access denied")

var (
	// ErrNotAuthenticated means the request carried no credential.
	ErrNotAuthenticated = fmt.Errorf("%w: not authenticated", ErrAccessDenied)
	// ErrInvalidCredentials means the credential does not match any registered token.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAccessDenied)
)

// AccessGate admits callers whose bearer token digest is registered in the
// token store. Raw tokens never leave this type.
type AccessGate struct {
	tokens driven.APITokenStore
}

// NewAccessGate creates a new AccessGate backed by the given token store.
func NewAccessGate(tokens driven.APITokenStore) *AccessGate {
	return &AccessGate{tokens: tokens}
}

// Authenticate resolves rawToken to its registered record.
func (g *AccessGate) Authenticate(ctx context.Context, rawToken string) (*model.APIToken, error) {
	if rawToken == "" {
		return nil, ErrNotAuthenticated
	}

	token, err := g.tokens.GetByDigest(ctx, model.TokenDigest(rawToken))
	if err != nil {
		return nil, fmt.Errorf("look up api token: %w", err)
	}
	if token == nil {
		return nil, ErrInvalidCredentials
	}

	return token, nil
}
