package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/starneighbours/internal/application"
	"github.com/ericfisherdev/starneighbours/internal/domain/model"
)

type mockTokenStore struct {
	tokens  map[string]model.APIToken
	getErr  error
	lookups []string
}

func (m *mockTokenStore) GetByDigest(_ context.Context, digest string) (*model.APIToken, error) {
	m.lookups = append(m.lookups, digest)
	if m.getErr != nil {
		return nil, m.getErr
	}
	tok, ok := m.tokens[digest]
	if !ok {
		return nil, nil
	}
	return &tok, nil
}

func (m *mockTokenStore) Create(_ context.Context, name, digest, comments string) (model.APIToken, error) {
	tok := model.APIToken{ID: int64(len(m.tokens) + 1), Name: name, HashedToken: digest, Comments: comments}
	if m.tokens == nil {
		m.tokens = make(map[string]model.APIToken)
	}
	m.tokens[digest] = tok
	return tok, nil
}

func TestAuthenticate(t *testing.T) {
	digest := model.TokenDigest("test-token")
	store := &mockTokenStore{tokens: map[string]model.APIToken{
		digest: {ID: 7, Name: "ci", HashedToken: digest},
	}}
	gate := application.NewAccessGate(store)

	tests := []struct {
		name    string
		raw     string
		wantErr error
		wantID  int64
	}{
		{name: "registered token", raw: "test-token", wantID: 7},
		{name: "empty token", raw: "", wantErr: application.ErrNotAuthenticated},
		{name: "unknown token", raw: "wrong-token", wantErr: application.ErrInvalidCredentials},
		{name: "digest presented as token", raw: digest, wantErr: application.ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := gate.Authenticate(context.Background(), tc.raw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, application.ErrAccessDenied)
				assert.Nil(t, tok)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, tok)
			assert.Equal(t, tc.wantID, tok.ID)
		})
	}
}

func TestAuthenticate_StoreSeesOnlyDigests(t *testing.T) {
	store := &mockTokenStore{}
	gate := application.NewAccessGate(store)

	_, _ = gate.Authenticate(context.Background(), "secret-value")

	require.Len(t, store.lookups, 1)
	assert.Equal(t, model.TokenDigest("secret-value"), store.lookups[0])
	assert.NotContains(t, store.lookups[0], "secret-value")
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk I/O error")
	gate := application.NewAccessGate(&mockTokenStore{getErr: storeErr})

	tok, err := gate.Authenticate(context.Background(), "test-token")
	require.Error(t, err)
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, application.ErrAccessDenied)
}
