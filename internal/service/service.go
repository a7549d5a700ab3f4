// Package service implements the game operations: create, search, join,
// start, vote, and cleanup.
//
// Every mutating operation follows the same shape: read the current game
// document, compute the new state from that snapshot, and write it back
// conditioned on the revision read. A concurrent writer surfaces as
// repository.ErrRevisionConflict and the caller retries the whole
// read-modify-write; the service never retries internally with stale data.
package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"bingo-server/internal/model"
)

// Store is the document-store contract the service depends on. The
// production implementation is repository.GameRepository; tests substitute
// an in-memory double.
type Store interface {
	Get(ctx context.Context, id string) (*model.Game, error)
	GetByCode(ctx context.Context, code string) (*model.Game, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, game *model.Game) error
	Update(ctx context.Context, game *model.Game) error
	ListByCreator(ctx context.Context, creatorID string) ([]*model.Game, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Game, error)
	Delete(ctx context.Context, id string) error
}

// Publisher receives the updated game snapshot after every successful
// mutating write. Delivery is best effort; the realtime hub implements it.
type Publisher interface {
	Publish(gameID string, game *model.Game)
}

// Options tunes game rules and retention. Zero values fall back to the
// defaults below.
type Options struct {
	CodeLength      int
	CodeAttempts    int
	MaxEventCount   int
	MaxEventLength  int
	MaxPlayers      int
	RetentionWindow time.Duration
	Rand            *rand.Rand
}

// Defaults for Options.
const (
	DefaultCodeLength      = 4
	DefaultCodeAttempts    = 10
	DefaultMaxEventCount   = 100
	DefaultMaxEventLength  = 200
	DefaultMaxPlayers      = 50
	DefaultRetentionWindow = 24 * time.Hour
)

// GameService implements the bingo game operations over a Store.
type GameService struct {
	store Store
	pub   Publisher
	opts  Options

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService creates a new GameService instance.
func NewGameService(store Store, pub Publisher, opts *Options) *GameService {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.CodeLength <= 0 {
		o.CodeLength = DefaultCodeLength
	}
	if o.CodeAttempts <= 0 {
		o.CodeAttempts = DefaultCodeAttempts
	}
	if o.MaxEventCount <= 0 {
		o.MaxEventCount = DefaultMaxEventCount
	}
	if o.MaxEventLength <= 0 {
		o.MaxEventLength = DefaultMaxEventLength
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	if o.RetentionWindow <= 0 {
		o.RetentionWindow = DefaultRetentionWindow
	}
	rng := o.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &GameService{
		store: store,
		pub:   pub,
		opts:  o,
		rng:   rng,
	}
}

// publish pushes the updated snapshot to the realtime feed, if any.
func (s *GameService) publish(game *model.Game) {
	if s.pub != nil {
		s.pub.Publish(game.ID, game)
	}
}

// withRand runs fn with the service's random source. The source is not
// safe for concurrent use, so access is serialized.
func (s *GameService) withRand(fn func(rng *rand.Rand)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	fn(s.rng)
}
