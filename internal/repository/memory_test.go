package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-server/internal/model"
)

func TestMemoryStoreRevisionConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	require.NoError(t, store.Create(ctx, game))
	assert.Equal(t, int64(1), game.Revision)

	first, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	second, err := store.Get(ctx, game.ID)
	require.NoError(t, err)

	first.Status = model.StatusStarted
	require.NoError(t, store.Update(ctx, first))
	assert.Equal(t, int64(2), first.Revision)

	second.Status = model.StatusFinished
	assert.ErrorIs(t, store.Update(ctx, second), ErrRevisionConflict)

	got, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, got.Status)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	game.Players = []model.Player{{UserID: "u1", Username: "alice"}}
	require.NoError(t, store.Create(ctx, game))

	got, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	got.Players[0].Username = "mutated"
	got.Events[0] = "mutated"

	// Mutating a returned copy must not leak into the store.
	fresh, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Players[0].Username)
	assert.Equal(t, "a", fresh.Events[0])
}

func TestMemoryStoreGetByCodePrefersNewest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older := newGame(1, "AB12", time.Now().UTC().Add(-time.Hour))
	newer := newGame(2, "AB12", time.Now().UTC())
	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, newer))

	got, err := store.GetByCode(ctx, "ab12")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = store.GetByCode(ctx, "ZZ99")
	assert.ErrorIs(t, err, ErrGameNotFound)
}
