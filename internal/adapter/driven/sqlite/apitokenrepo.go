package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.APITokenStore = (*APITokenRepo)(nil)

// APITokenRepo is the SQLite implementation of the APITokenStore port interface.
// Rows are append-only: there is no update or delete path.
type APITokenRepo struct {
	db *DB
}

// NewAPITokenRepo creates a new APITokenRepo backed by the given DB.
func NewAPITokenRepo(db *DB) *APITokenRepo {
	return &APITokenRepo{db: db}
}

// GetByDigest returns the token whose hashed_token equals digest.
// Returns nil, nil if no row matches.
func (r *APITokenRepo) GetByDigest(ctx context.Context, digest string) (*model.APIToken, error) {
	const query = `SELECT id, name, hashed_token, comments, created_at, updated_at
		FROM api_tokens WHERE hashed_token = ?`

	row := r.db.Reader.QueryRowContext(ctx, query, digest)
	token, err := scanAPIToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get api token: %w", err)
	}

	return token, nil
}

// Create inserts a new token digest and returns the stored record.
func (r *APITokenRepo) Create(ctx context.Context, name, digest, comments string) (model.APIToken, error) {
	if !model.IsTokenDigest(digest) {
		return model.APIToken{}, fmt.Errorf("create api token %q: %w", name, driven.ErrInvalidTokenDigest)
	}

	const query = `INSERT INTO api_tokens (name, hashed_token, comments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	now := time.Now().UTC().Truncate(time.Second)
	stamp := now.Format(time.RFC3339)

	result, err := r.db.Writer.ExecContext(ctx, query, name, digest, comments, stamp, stamp)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.APIToken{}, fmt.Errorf("create api token %q: %w", name, driven.ErrTokenAlreadyExists)
		}
		return model.APIToken{}, fmt.Errorf("create api token %q: %w", name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.APIToken{}, fmt.Errorf("get api token id: %w", err)
	}

	return model.APIToken{
		ID:          id,
		Name:        name,
		HashedToken: digest,
		Comments:    comments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func scanAPIToken(row *sql.Row) (*model.APIToken, error) {
	var (
		token     model.APIToken
		createdAt string
		updatedAt string
	)

	err := row.Scan(&token.ID, &token.Name, &token.HashedToken, &token.Comments, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	token.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	token.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &token, nil
}
