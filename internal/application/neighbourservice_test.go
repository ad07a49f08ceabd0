package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/starneighbours/internal/application"
	"github.com/ericfisherdev/starneighbours/internal/domain/model"
	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

// --- Mock implementations ---

// mockStarSource serves canned stargazer and starred lists and records every call.
type mockStarSource struct {
	stargazers    map[string][]model.User
	starred       map[string][]model.Repository
	stargazersErr error
	starredErr    map[string]error

	onStarred func(login string)

	stargazerCalls []string
	starredCalls   []string
}

func (m *mockStarSource) FetchStargazers(_ context.Context, owner, repo string) ([]model.User, error) {
	fullName := owner + "/" + repo
	m.stargazerCalls = append(m.stargazerCalls, fullName)
	if m.stargazersErr != nil {
		return nil, m.stargazersErr
	}
	return m.stargazers[fullName], nil
}

func (m *mockStarSource) FetchStarredRepositories(_ context.Context, login string) ([]model.Repository, error) {
	m.starredCalls = append(m.starredCalls, login)
	if m.onStarred != nil {
		m.onStarred(login)
	}
	if err := m.starredErr[login]; err != nil {
		return nil, err
	}
	return m.starred[login], nil
}

func users(logins ...string) []model.User {
	out := make([]model.User, 0, len(logins))
	for _, l := range logins {
		out = append(out, model.User{Login: l})
	}
	return out
}

func repos(fullNames ...string) []model.Repository {
	out := make([]model.Repository, 0, len(fullNames))
	for _, n := range fullNames {
		out = append(out, model.Repository{FullName: n})
	}
	return out
}

// --- Tests ---

func TestFindNeighbours_NoStargazers(t *testing.T) {
	src := &mockStarSource{}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "octo", "lonely")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, []string{"octo/lonely"}, src.stargazerCalls)
	assert.Empty(t, src.starredCalls, "no bridge user means no further remote calls")
}

func TestFindNeighbours_ExcludesTarget(t *testing.T) {
	src := &mockStarSource{
		stargazers: map[string][]model.User{"owner/target": users("u1")},
		starred:    map[string][]model.Repository{"u1": repos("owner/target")},
	}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "owner", "target")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindNeighbours_AggregatesInDiscoveryOrder(t *testing.T) {
	src := &mockStarSource{
		stargazers: map[string][]model.User{"owner/target": users("u1", "u2")},
		starred: map[string][]model.Repository{
			"u1": repos("x/A", "owner/target", "x/B"),
			"u2": repos("x/B", "x/C"),
		},
	}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "owner", "target")
	require.NoError(t, err)

	want := []model.Neighbour{
		{Repo: "x/A", Stargazers: users("u1")},
		{Repo: "x/B", Stargazers: users("u1", "u2")},
		{Repo: "x/C", Stargazers: users("u2")},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"u1", "u2"}, src.starredCalls, "bridge users are visited in stargazer order")
}

func TestFindNeighbours_SimilarNamesAreNotTheTarget(t *testing.T) {
	src := &mockStarSource{
		stargazers: map[string][]model.User{"owner/target": users("u1")},
		starred: map[string][]model.Repository{
			"u1": repos("other/target", "owner/target-fork", "Owner/Target"),
		},
	}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "owner", "target")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "other/target", got[0].Repo)
	assert.Equal(t, "owner/target-fork", got[1].Repo)
	assert.Equal(t, "Owner/Target", got[2].Repo)
}

func TestFindNeighbours_StargazersFailure(t *testing.T) {
	src := &mockStarSource{stargazersErr: &driven.RateLimitError{Reset: 1234567890}}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "owner", "target")
	require.Error(t, err)
	assert.Nil(t, got)

	var rlErr *driven.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, int64(1234567890), rlErr.Reset)
	assert.Empty(t, src.starredCalls)
}

func TestFindNeighbours_BridgeUserFailureAborts(t *testing.T) {
	src := &mockStarSource{
		stargazers: map[string][]model.User{"owner/target": users("u1", "u2", "u3")},
		starred: map[string][]model.Repository{
			"u1": repos("x/A"),
			"u3": repos("x/C"),
		},
		starredErr: map[string]error{
			"u2": &driven.ProviderError{StatusCode: 502, Body: "bad gateway"},
		},
	}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "owner", "target")
	require.Error(t, err)
	assert.Nil(t, got, "partial results are discarded")

	var provErr *driven.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 502, provErr.StatusCode)
	assert.Equal(t, []string{"u1", "u2"}, src.starredCalls, "no calls after the failing user")
}

func TestFindNeighbours_ContextCanceledBetweenUsers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &mockStarSource{
		stargazers: map[string][]model.User{"owner/target": users("u1", "u2")},
		starred: map[string][]model.Repository{
			"u1": repos("x/A"),
			"u2": repos("x/B"),
		},
		onStarred: func(string) { cancel() },
	}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(ctx, "owner", "target")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"u1"}, src.starredCalls)
}

func TestFindNeighbours_OneEntryPerStargazer(t *testing.T) {
	src := &mockStarSource{
		stargazers: map[string][]model.User{"owner/target": users("u1", "u2", "u1")},
		starred: map[string][]model.Repository{
			"u1": repos("x/A", "x/A"),
			"u2": repos("x/A"),
		},
	}
	svc := application.NewNeighbourService(src)

	got, err := svc.FindNeighbours(context.Background(), "owner", "target")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, users("u1", "u2"), got[0].Stargazers)
	assert.Equal(t, []string{"u1", "u2"}, src.starredCalls, "a repeated stargazer is fetched once")
}
