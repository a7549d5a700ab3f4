// Package service tests run against the in-memory store, which carries the
// same revision semantics as the SQL-backed one.
package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"bingo-server/internal/model"
	"bingo-server/internal/repository"
)

func newTestService(t *testing.T, opts *Options) (*GameService, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	if opts == nil {
		opts = &Options{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(42))
	}
	return NewGameService(store, nil, opts), store
}

// createWaitingGame creates a minimal valid game and returns it.
func createWaitingGame(t *testing.T, svc *GameService, mutate func(*CreateGameParams)) *model.Game {
	t.Helper()

	params := CreateGameParams{
		CreatorID:       "host",
		BoardSize:       3,
		Events:          []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
		VotingThreshold: 50,
	}
	if mutate != nil {
		mutate(&params)
	}

	game, err := svc.CreateGame(context.Background(), params)
	require.NoError(t, err)
	return game
}

// startedGame creates a game, joins the given players, and starts it.
func startedGame(t *testing.T, svc *GameService, mutate func(*CreateGameParams), players ...string) *model.Game {
	t.Helper()
	ctx := context.Background()

	game := createWaitingGame(t, svc, mutate)
	for _, p := range players {
		_, _, err := svc.Join(ctx, game.ID, p, "name-"+p)
		require.NoError(t, err)
	}
	game, err := svc.Start(ctx, game.ID, game.CreatorID)
	require.NoError(t, err)
	return game
}
