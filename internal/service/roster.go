package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"bingo-server/internal/model"
)

// Username length bounds in runes, applied after trimming.
const (
	MinUsernameLen = 1
	MaxUsernameLen = 20
)

// Join admits a player into a waiting game. Joining is idempotent on the
// user id: a repeat call returns the existing roster entry unchanged, so
// the operation is safe to retry. The write is conditional on the revision
// read; a racing writer surfaces as repository.ErrRevisionConflict.
func (s *GameService) Join(ctx context.Context, gameID, userID, username string) (*model.Game, *model.Player, error) {
	if gameID == "" || userID == "" {
		return nil, nil, fmt.Errorf("%w: gameId and userId are required", ErrInvalidInput)
	}
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < MinUsernameLen || n > MaxUsernameLen {
		return nil, nil, ErrInvalidUsername
	}

	game, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	// Idempotent on identity: an already-admitted user is a success.
	if existing := game.PlayerByID(userID); existing != nil {
		return game, existing, nil
	}

	if game.Status != model.StatusWaiting {
		return nil, nil, ErrGameNotJoinable
	}
	if len(game.Players) >= s.opts.MaxPlayers {
		return nil, nil, ErrGameFull
	}
	if game.HasUsername(username) {
		return nil, nil, ErrUsernameTaken
	}

	game.Players = append(game.Players, model.Player{
		UserID:   userID,
		Username: username,
		Ticked:   []int{},
	})

	if err := s.store.Update(ctx, game); err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("game_id", game.ID).
		Str("user_id", userID).
		Int("players", len(game.Players)).
		Msg("Player joined")

	s.publish(game)
	return game, &game.Players[len(game.Players)-1], nil
}
