// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

// NeighbourService discovers the repositories that share stargazers with a
// target repository. It depends only on the StarSource port and keeps no state
// between calls.
type NeighbourService struct {
	stars driven.StarSource
}

// NewNeighbourService creates a new NeighbourService.
func NewNeighbourService(stars driven.StarSource) *NeighbourService {
	return &NeighbourService{stars: stars}
}

// FindNeighbours returns every repository starred by at least one stargazer of
// owner/repo, each with the stargazers that bridge to it.
//
// Neighbours appear in the order they were first discovered, walking the
// target's stargazers in the order the source returned them and each user's
// starred list in order. The target itself is never a neighbour.
//
// Any upstream failure aborts the whole query: no partial result is returned
// and the error keeps its type for errors.As.
func (s *NeighbourService) FindNeighbours(ctx context.Context, owner, repo string) ([]model.Neighbour, error) {
	target := owner + "/" + repo
	start := time.Now()

	stargazers, err := s.stars.FetchStargazers(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch stargazers of %s: %w", target, err)
	}

	agg := newNeighbourIndex()
	visited := make(map[string]struct{}, len(stargazers))

	for _, user := range stargazers {
		if _, ok := visited[user.Login]; ok {
			continue
		}
		visited[user.Login] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("find neighbours of %s: %w", target, err)
		}

		starred, err := s.stars.FetchStarredRepositories(ctx, user.Login)
		if err != nil {
			return nil, fmt.Errorf("fetch starred repositories of %s: %w", user.Login, err)
		}

		for _, r := range starred {
			if r.FullName == target {
				continue
			}
			agg.add(r.FullName, user)
		}
	}

	neighbours := agg.neighbours()

	slog.Debug("neighbour query complete",
		"repo", target,
		"stargazers", len(stargazers),
		"neighbours", len(neighbours),
		"duration", time.Since(start),
	)

	return neighbours, nil
}

// neighbourIndex is an insertion-ordered map from repository full name to the
// stargazers bridging to it.
type neighbourIndex struct {
	keys  []string
	index map[string]int
	users [][]model.User
}

func newNeighbourIndex() *neighbourIndex {
	return &neighbourIndex{index: make(map[string]int)}
}

// add records user under fullName. Users are added one at a time, so a
// repeat of the most recent user for a key is a duplicate and is dropped.
func (n *neighbourIndex) add(fullName string, user model.User) {
	i, ok := n.index[fullName]
	if !ok {
		i = len(n.keys)
		n.index[fullName] = i
		n.keys = append(n.keys, fullName)
		n.users = append(n.users, nil)
	}
	if list := n.users[i]; len(list) > 0 && list[len(list)-1].Login == user.Login {
		return
	}
	n.users[i] = append(n.users[i], user)
}

// neighbours returns one record per key in first-insertion order.
// The result is never nil.
func (n *neighbourIndex) neighbours() []model.Neighbour {
	out := make([]model.Neighbour, 0, len(n.keys))
	for i, key := range n.keys {
		out = append(out, model.Neighbour{Repo: key, Stargazers: n.users[i]})
	}
	return out
}
