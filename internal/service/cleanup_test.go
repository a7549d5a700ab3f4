package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-server/internal/model"
	"bingo-server/internal/repository"
)

// backdate rewrites a game's creation time directly in the store.
func backdate(t *testing.T, store *repository.MemoryStore, gameID string, createdAt time.Time) {
	t.Helper()
	ctx := context.Background()

	game, err := store.Get(ctx, gameID)
	require.NoError(t, err)
	game.CreatedAt = createdAt
	require.NoError(t, store.Update(ctx, game))
}

func TestSweepDeletesExpiredGames(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	old := createWaitingGame(t, svc, nil)
	backdate(t, store, old.ID, createdAt)
	fresh := createWaitingGame(t, svc, nil)

	// 25 hours after creation the 24-hour window has passed.
	result, err := svc.Sweep(ctx, createdAt.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, old.ID, result.Outcomes[0].GameID)
	assert.True(t, result.Outcomes[0].Deleted)

	_, err = svc.GetGame(ctx, old.ID)
	assert.ErrorIs(t, err, repository.ErrGameNotFound)
	_, err = svc.GetGame(ctx, fresh.ID)
	assert.NoError(t, err, "games inside the window must survive")
}

func TestSweepLeavesYoungGames(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	game := createWaitingGame(t, svc, nil)
	backdate(t, store, game.ID, createdAt)

	result, err := svc.Sweep(ctx, createdAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
	assert.Empty(t, result.Outcomes)

	_, err = svc.GetGame(ctx, game.ID)
	assert.NoError(t, err)
}

func TestSweepIgnoresStatus(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	game := startedGame(t, svc, nil, "host", "u1")
	backdate(t, store, game.ID, createdAt)

	updated, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusStarted, updated.Status)

	result, err := svc.Sweep(ctx, createdAt.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted, "expiry depends on age alone, not lifecycle state")
}

func TestSweepIdempotent(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	game := createWaitingGame(t, svc, nil)
	backdate(t, store, game.ID, createdAt)

	now := createdAt.Add(25 * time.Hour)

	first, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Deleted)

	second, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, second.Deleted)
	assert.Empty(t, second.Outcomes)
}

func TestSweepCustomWindow(t *testing.T) {
	svc, store := newTestService(t, &Options{RetentionWindow: time.Hour})
	ctx := context.Background()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	game := createWaitingGame(t, svc, nil)
	backdate(t, store, game.ID, createdAt)

	result, err := svc.Sweep(ctx, createdAt.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Empty(t, result.Outcomes[0].Error)

	_, err = svc.GetGame(ctx, game.ID)
	assert.ErrorIs(t, err, repository.ErrGameNotFound)
}
