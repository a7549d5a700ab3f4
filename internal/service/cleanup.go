package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"bingo-server/internal/repository"
)

// SweepOutcome records the fate of one expired game during a sweep.
type SweepOutcome struct {
	GameID    string    `json:"gameId"`
	CreatedAt time.Time `json:"createdAt"`
	Deleted   bool      `json:"deleted"`
	Error     string    `json:"error,omitempty"`
}

// SweepResult summarizes a retention sweep.
type SweepResult struct {
	Deleted  int            `json:"deleted"`
	Outcomes []SweepOutcome `json:"outcomes"`
}

// Sweep deletes every game created before now minus the retention window.
// A per-game delete failure is recorded in the outcome list and does not
// abort the rest of the sweep. Sweeping a game that is already gone counts
// as a successful delete, so re-running against the same set is harmless.
func (s *GameService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	cutoff := now.Add(-s.opts.RetentionWindow)

	expired, err := s.store.ListExpired(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Outcomes: make([]SweepOutcome, 0, len(expired))}
	for _, game := range expired {
		outcome := SweepOutcome{GameID: game.ID, CreatedAt: game.CreatedAt}
		if err := s.store.Delete(ctx, game.ID); err != nil {
			outcome.Error = err.Error()
			log.Error().Err(err).Str("game_id", game.ID).Msg("Failed to delete expired game")
		} else {
			outcome.Deleted = true
			result.Deleted++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if len(expired) > 0 {
		log.Info().
			Int("expired", len(expired)).
			Int("deleted", result.Deleted).
			Time("cutoff", cutoff).
			Msg("Retention sweep finished")
	}
	return result, nil
}

// IsRetryable reports whether an operation failed on a concurrent write and
// should be retried by re-running the whole read-modify-write.
func IsRetryable(err error) bool {
	return errors.Is(err, repository.ErrRevisionConflict)
}
