// Package repository tests use testcontainers-go to spin up a PostgreSQL
// container and exercise the document store against a real database.
package repository

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"bingo-server/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = runTestMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runTestMigrations applies the games schema.
func runTestMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			game_code VARCHAR(8) NOT NULL,
			doc JSONB NOT NULL,
			revision BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_games_code ON games (game_code)`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_games_created_at ON games (created_at)`)
	return err
}

// newGame builds a minimal waiting game with the given id suffix and code.
func newGame(n int, code string, createdAt time.Time) *model.Game {
	return &model.Game{
		ID:              fmt.Sprintf("00000000-0000-0000-0000-%012d", n),
		GameCode:        code,
		CreatorID:       "creator-1",
		BoardSize:       3,
		Events:          []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
		VotingThreshold: 50,
		Status:          model.StatusWaiting,
		Players:         []model.Player{},
		Votes:           map[int][]string{},
		VerifiedEvents:  []int{},
		CreatedAt:       createdAt,
	}
}

func TestGameRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, game))
	assert.Equal(t, int64(1), game.Revision)

	got, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, game.ID, got.ID)
	assert.Equal(t, "AB12", got.GameCode)
	assert.Equal(t, int64(1), got.Revision)
	assert.Equal(t, model.StatusWaiting, got.Status)
	assert.Equal(t, game.Events, got.Events)

	_, err = repo.Get(ctx, "00000000-0000-0000-0000-999999999999")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameRepository_GetByCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	older := newGame(1, "AB12", time.Now().UTC().Add(-time.Hour))
	newer := newGame(2, "AB12", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	// Lookup is case-insensitive and prefers the newest holder of a code.
	got, err := repo.GetByCode(ctx, "ab12")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = repo.GetByCode(ctx, "ZZ99")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameRepository_CodeInUse(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	inUse, err := repo.CodeInUse(ctx, "AB12")
	require.NoError(t, err)
	assert.False(t, inUse)

	require.NoError(t, repo.Create(ctx, newGame(1, "AB12", time.Now().UTC())))

	inUse, err = repo.CodeInUse(ctx, "ab12")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestGameRepository_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, game))

	game.Status = model.StatusStarted
	require.NoError(t, repo.Update(ctx, game))
	assert.Equal(t, int64(2), game.Revision)

	got, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, got.Status)
	assert.Equal(t, int64(2), got.Revision)
}

func TestGameRepository_UpdateRevisionConflict(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, game))

	// Two readers load the same revision.
	first, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)

	first.Status = model.StatusStarted
	require.NoError(t, repo.Update(ctx, first))

	// The second writer still holds revision 1 and must lose.
	second.Status = model.StatusFinished
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	got, err := repo.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, got.Status)
}

func TestGameRepository_UpdateMissingGame(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	game.Revision = 1
	err := repo.Update(ctx, game)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameRepository_ListByCreator(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	first := newGame(1, "AA11", now.Add(-2*time.Hour))
	second := newGame(2, "BB22", now.Add(-time.Hour))
	other := newGame(3, "CC33", now)
	other.CreatorID = "creator-2"

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	games, err := repo.ListByCreator(ctx, "creator-1")
	require.NoError(t, err)
	require.Len(t, games, 2)

	// Newest first.
	assert.Equal(t, second.ID, games[0].ID)
	assert.Equal(t, first.ID, games[1].ID)

	games, err = repo.ListByCreator(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestGameRepository_ListExpired(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	old := newGame(1, "AA11", now.Add(-25*time.Hour))
	fresh := newGame(2, "BB22", now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	expired, err := repo.ListExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].ID)
}

func TestGameRepository_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameRepository(pool)
	ctx := context.Background()

	game := newGame(1, "AB12", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, game))

	require.NoError(t, repo.Delete(ctx, game.ID))
	_, err := repo.Get(ctx, game.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)

	// Deleting again is a no-op success.
	require.NoError(t, repo.Delete(ctx, game.ID))
}
