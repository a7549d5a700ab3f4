package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"bingo-server/internal/game/board"
	"bingo-server/internal/model"
)

// Start moves a waiting game to started. Only the host may start it.
//
// When the game uses randomized boards or a free space, every player gets a
// freshly generated board; uniqueness across the session is best effort.
// Ticked marks, votes, and verified events are reset so a restart of a
// never-started game cannot carry stale state.
func (s *GameService) Start(ctx context.Context, gameID, userID string) (*model.Game, error) {
	if gameID == "" || userID == "" {
		return nil, fmt.Errorf("%w: gameId and userId are required", ErrInvalidInput)
	}

	game, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.CreatorID != userID {
		return nil, ErrNotHost
	}
	if game.Status != model.StatusWaiting {
		return nil, ErrInvalidState
	}

	if game.RandomizeBoards || game.AddFreeSpace {
		if err := s.assignBoards(game); err != nil {
			return nil, err
		}
	}
	for i := range game.Players {
		game.Players[i].Ticked = []int{}
	}
	game.Votes = map[int][]string{}
	game.VerifiedEvents = []int{}
	game.Status = model.StatusStarted

	if err := s.store.Update(ctx, game); err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", game.ID).
		Int("players", len(game.Players)).
		Bool("randomized", game.RandomizeBoards).
		Msg("Game started")

	s.publish(game)
	return game, nil
}

// assignBoards generates a personal board for every player, tracking the
// flat sequences already handed out so duplicates are avoided when the
// event pool allows it.
func (s *GameService) assignBoards(game *model.Game) error {
	existing := make(map[string]struct{}, len(game.Players))

	var genErr error
	s.withRand(func(rng *rand.Rand) {
		for i := range game.Players {
			b, unique, err := board.Generate(rng, game.Events, game.BoardSize, game.AddFreeSpace, game.FreeSpaceText, existing)
			if err != nil {
				genErr = err
				return
			}
			if !unique {
				log.Warn().
					Str("game_id", game.ID).
					Str("user_id", game.Players[i].UserID).
					Msg("Accepted duplicate board after exhausting shuffle attempts")
			}
			existing[board.Key(b)] = struct{}{}
			game.Players[i].Board = b
			game.Players[i].BoardHash = board.Hash(b)
		}
	})
	return genErr
}

// declareWinner records the first fully covered board. Winner assignment is
// at most once: later wins are silently ignored.
func declareWinner(game *model.Game, winner *model.Player) bool {
	if game.Winner != "" {
		return false
	}
	game.Winner = winner.Username
	game.Status = model.StatusFinished
	return true
}
