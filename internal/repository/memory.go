package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bingo-server/internal/model"
)

// MemoryStore is an in-process game store with the same optimistic
// concurrency semantics as GameRepository. It backs local development
// without PostgreSQL and the service-level tests.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]*model.Game
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*model.Game)}
}

// Create inserts a new game document with revision 1.
func (m *MemoryStore) Create(_ context.Context, game *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	game.Revision = 1
	m.games[game.ID] = cloneGame(game)
	return nil
}

// Get retrieves a game by id, or ErrGameNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return cloneGame(game), nil
}

// GetByCode retrieves the most recent game with the given join code.
func (m *MemoryStore) GetByCode(_ context.Context, code string) (*model.Game, error) {
	code = strings.ToUpper(code)

	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.Game
	for _, game := range m.games {
		if game.GameCode != code {
			continue
		}
		if found == nil || game.CreatedAt.After(found.CreatedAt) {
			found = game
		}
	}
	if found == nil {
		return nil, ErrGameNotFound
	}
	return cloneGame(found), nil
}

// CodeInUse reports whether any stored game holds the given code.
func (m *MemoryStore) CodeInUse(_ context.Context, code string) (bool, error) {
	code = strings.ToUpper(code)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, game := range m.games {
		if game.GameCode == code {
			return true, nil
		}
	}
	return false, nil
}

// Update writes the document back conditioned on the revision read.
func (m *MemoryStore) Update(_ context.Context, game *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.games[game.ID]
	if !ok {
		return ErrGameNotFound
	}
	if current.Revision != game.Revision {
		return ErrRevisionConflict
	}
	game.Revision++
	m.games[game.ID] = cloneGame(game)
	return nil
}

// ListByCreator returns the games created by a user, newest first.
func (m *MemoryStore) ListByCreator(_ context.Context, creatorID string) ([]*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var games []*model.Game
	for _, game := range m.games {
		if game.CreatorID == creatorID {
			games = append(games, cloneGame(game))
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

// ListExpired returns the games created before the cutoff, oldest first.
func (m *MemoryStore) ListExpired(_ context.Context, cutoff time.Time) ([]*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var games []*model.Game
	for _, game := range m.games {
		if game.CreatedAt.Before(cutoff) {
			games = append(games, cloneGame(game))
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games, nil
}

// Delete removes a game. Unknown ids are a no-op success.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}

// Len returns the number of stored games.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

// cloneGame deep-copies a game so callers never share mutable state with
// the store, mirroring the serialization boundary of the SQL store.
func cloneGame(g *model.Game) *model.Game {
	c := *g
	c.Events = append([]string(nil), g.Events...)
	c.VerifiedEvents = append([]int(nil), g.VerifiedEvents...)
	c.Votes = make(map[int][]string, len(g.Votes))
	for idx, voters := range g.Votes {
		c.Votes[idx] = append([]string(nil), voters...)
	}
	c.Players = make([]model.Player, len(g.Players))
	for i, p := range g.Players {
		cp := p
		cp.Ticked = append([]int(nil), p.Ticked...)
		if p.Board != nil {
			b := *p.Board
			b.Cells = append([]model.Cell(nil), p.Board.Cells...)
			cp.Board = &b
		}
		c.Players[i] = cp
	}
	return &c
}
