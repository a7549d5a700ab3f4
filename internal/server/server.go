// Package server exposes the game operations over HTTP.
//
// Every mutating endpoint runs its read-modify-write under the per-game
// lock and retries with exponential backoff when the store reports a
// revision conflict, so callers see a conflict error only after the
// bounded retries are exhausted.
package server

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"bingo-server/internal/identity"
	"bingo-server/internal/pkg/lock"
	"bingo-server/internal/realtime"
	"bingo-server/internal/service"
)

// Backoff tuning for conflict retries.
const (
	retryInitialInterval = 25 * time.Millisecond
	retryMaxInterval     = 500 * time.Millisecond
)

// Server wires the game service, realtime hub, and identity provider into
// an HTTP router.
type Server struct {
	svc     *service.GameService
	hub     *realtime.Hub
	ids     *identity.Provider
	locks   *lock.GameLock
	retries int
}

// New creates a new Server instance. retries bounds the conflict retry
// loop per request; values below 1 fall back to 5.
func New(svc *service.GameService, hub *realtime.Hub, ids *identity.Provider, retries int) *Server {
	if retries < 1 {
		retries = 5
	}
	return &Server{
		svc:     svc,
		hub:     hub,
		ids:     ids,
		locks:   lock.NewGameLock(),
		retries: retries,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *httprouter.Router {
	router := httprouter.New()

	router.GET("/healthz", s.handleHealth)
	router.GET("/api/session", s.handleSession)

	router.POST("/api/games", s.handleCreateGame)
	router.GET("/api/games", s.handleListGames)
	router.GET("/api/games/:id", s.handleGetGame)
	// Search lives outside /api/games: httprouter cannot mix a static
	// child with the :id wildcard in the same segment.
	router.POST("/api/search", s.handleSearchGame)
	router.POST("/api/games/:id/join", s.handleJoinGame)
	router.POST("/api/games/:id/start", s.handleStartGame)
	router.POST("/api/games/:id/vote", s.handleVoteEvent)
	router.POST("/api/cleanup", s.handleCleanup)

	router.GET("/ws/games/:id", s.handleSubscribe)

	return router
}

// withConflictRetry runs op under the game's lock, retrying the whole
// read-modify-write with backoff while the store reports a revision
// conflict. Any other error is permanent.
func (s *Server) withConflictRetry(gameID string, op func() error) error {
	run := func() error {
		return s.locks.WithLock(gameID, func() error {
			if err := op(); err != nil {
				if service.IsRetryable(err) {
					return err
				}
				return backoff.Permanent(err)
			}
			return nil
		})
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval

	err := backoff.Retry(run, backoff.WithMaxRetries(bo, uint64(s.retries)))
	if err != nil && service.IsRetryable(err) {
		log.Warn().Str("game_id", gameID).Int("retries", s.retries).Msg("Conflict retries exhausted")
	}
	return err
}

// userID resolves the caller's identity: an explicit payload id wins,
// otherwise the anonymous session id is used (minted on first contact).
func (s *Server) userID(w http.ResponseWriter, r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s.ids.GetOrCreate(w, r)
}
