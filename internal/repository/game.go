// Package repository provides the game document store.
//
// Each game is persisted as one JSONB document plus indexed columns for the
// join code and creation time, and an integer revision used for optimistic
// concurrency: every conditional update must present the revision it read,
// and a mismatch surfaces as ErrRevisionConflict instead of overwriting.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bingo-server/internal/model"
)

// Common errors for store operations.
var (
	ErrGameNotFound = errors.New("game not found")
	// ErrRevisionConflict means another writer updated the document after it
	// was read. The caller retries the whole read-modify-write.
	ErrRevisionConflict = errors.New("game modified concurrently")
)

// GameRepository handles game document persistence.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

const gameColumns = `id, game_code, doc, revision, created_at`

// Create inserts a new game document with revision 1. The game's ID,
// GameCode, and CreatedAt must already be set by the caller.
func (r *GameRepository) Create(ctx context.Context, game *model.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game document: %w", err)
	}

	const query = `
		INSERT INTO games (id, game_code, doc, revision, created_at)
		VALUES ($1, $2, $3, 1, $4)
	`

	if _, err := r.pool.Exec(ctx, query, game.ID, game.GameCode, doc, game.CreatedAt); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	game.Revision = 1
	return nil
}

// Get retrieves a game document by id.
// Returns ErrGameNotFound if the game does not exist.
func (r *GameRepository) Get(ctx context.Context, id string) (*model.Game, error) {
	const query = `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return r.scanGame(r.pool.QueryRow(ctx, query, id))
}

// GetByCode retrieves the most recent game with the given join code.
// Codes are matched case-insensitively against their uppercase canonical form.
func (r *GameRepository) GetByCode(ctx context.Context, code string) (*model.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE game_code = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanGame(r.pool.QueryRow(ctx, query, strings.ToUpper(code)))
}

// CodeInUse reports whether any stored game currently holds the given code.
func (r *GameRepository) CodeInUse(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM games WHERE game_code = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, strings.ToUpper(code)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check game code: %w", err)
	}
	return exists, nil
}

// Update writes the document back conditioned on game.Revision being the
// revision currently stored. On success the game's Revision is advanced.
// Returns ErrRevisionConflict if another writer raced, ErrGameNotFound if
// the document disappeared.
func (r *GameRepository) Update(ctx context.Context, game *model.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game document: %w", err)
	}

	const query = `
		UPDATE games
		SET doc = $2, game_code = $3, revision = revision + 1
		WHERE id = $1 AND revision = $4
		RETURNING revision
	`

	var revision int64
	err = r.pool.QueryRow(ctx, query, game.ID, doc, game.GameCode, game.Revision).Scan(&revision)
	if err == nil {
		game.Revision = revision
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update game: %w", err)
	}

	// No row matched: either the game is gone or the revision moved.
	const existsQuery = `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, existsQuery, game.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check game existence: %w", err)
	}
	if !exists {
		return ErrGameNotFound
	}
	return ErrRevisionConflict
}

// ListByCreator retrieves all games created by the given user, newest first.
func (r *GameRepository) ListByCreator(ctx context.Context, creatorID string) ([]*model.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE doc->>'creatorId' = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games by creator: %w", err)
	}
	defer rows.Close()

	return r.collectGames(rows)
}

// ListExpired retrieves all games created before the cutoff.
func (r *GameRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE created_at < $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired games: %w", err)
	}
	defer rows.Close()

	return r.collectGames(rows)
}

// Delete removes a game document. Deleting a game that no longer exists is
// a no-op success, which keeps the retention sweep idempotent.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM games WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *GameRepository) scanGame(row rowScanner) (*model.Game, error) {
	var (
		id        string
		code      string
		doc       []byte
		revision  int64
		createdAt time.Time
	)
	if err := row.Scan(&id, &code, &doc, &revision, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var game model.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game document: %w", err)
	}

	// The indexed columns are authoritative.
	game.ID = id
	game.GameCode = code
	game.Revision = revision
	game.CreatedAt = createdAt
	return &game, nil
}

func (r *GameRepository) collectGames(rows pgx.Rows) ([]*model.Game, error) {
	var games []*model.Game
	for rows.Next() {
		game, err := r.scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}
