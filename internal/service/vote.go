package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bingo-server/internal/game/board"
	"bingo-server/internal/game/win"
	"bingo-server/internal/model"
)

// VoteResult reports the communal tally after a vote.
type VoteResult struct {
	EventIndex    int    `json:"eventIndex"`
	VoteCount     int    `json:"voteCount"`
	RequiredVotes int    `json:"requiredVotes"`
	Verified      bool   `json:"verified"`
	Winner        string `json:"winner,omitempty"`
}

// CastVote records userID's vote for an event and promotes the event to
// verified once the threshold is met. One vote per user per event: a repeat
// vote fails with ErrAlreadyVoted and changes nothing. Voting also marks
// the event in the caster's own ticked set.
//
// The threshold is recomputed from the current roster on every vote, and
// verification is a one-way ratchet: once promoted, an event stays verified
// even if the ratio would later fall below the threshold.
func (s *GameService) CastVote(ctx context.Context, gameID, userID string, eventIndex int) (*VoteResult, *model.Game, error) {
	if gameID == "" || userID == "" {
		return nil, nil, fmt.Errorf("%w: gameId and userId are required", ErrInvalidInput)
	}

	game, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if game.Status != model.StatusStarted {
		return nil, nil, ErrInvalidState
	}
	player := game.PlayerByID(userID)
	if player == nil {
		return nil, nil, ErrNotPlayer
	}
	if eventIndex < 0 || eventIndex >= len(game.Events) {
		return nil, nil, fmt.Errorf("%w: index %d, %d events", ErrEventOutOfRange, eventIndex, len(game.Events))
	}
	if game.HasVoted(eventIndex, userID) {
		return nil, nil, ErrAlreadyVoted
	}

	if game.Votes == nil {
		game.Votes = map[int][]string{}
	}
	game.Votes[eventIndex] = append(game.Votes[eventIndex], userID)
	if !player.HasTicked(eventIndex) {
		player.Ticked = append(player.Ticked, eventIndex)
	}

	result := &VoteResult{
		EventIndex:    eventIndex,
		VoteCount:     game.VoteCount(eventIndex),
		RequiredVotes: game.RequiredVotes(),
	}

	if result.VoteCount >= result.RequiredVotes && !game.IsVerified(eventIndex) {
		game.VerifiedEvents = append(game.VerifiedEvents, eventIndex)
	}
	result.Verified = game.IsVerified(eventIndex)

	// A vote on an already-verified event still adds a personal tick, so it
	// can complete the caster's board; the scan must run on every vote that
	// touches a verified event, not only on the promoting one.
	if result.Verified {
		if err := s.checkWinners(game); err != nil {
			return nil, nil, err
		}
	}
	result.Winner = game.Winner

	if err := s.store.Update(ctx, game); err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("game_id", game.ID).
		Str("user_id", userID).
		Int("event_index", eventIndex).
		Int("votes", result.VoteCount).
		Int("required", result.RequiredVotes).
		Bool("verified", result.Verified).
		Msg("Vote recorded")

	s.publish(game)
	return result, game, nil
}

// checkWinners scans every board against the verified set and declares the
// first fully covered one, in join order. Winner assignment is at most
// once; declareWinner no-ops when a winner already exists.
func (s *GameService) checkWinners(game *model.Game) error {
	for i := range game.Players {
		player := &game.Players[i]
		b, err := playerBoard(game, player)
		if err != nil {
			return err
		}
		if win.Check(b.Size, win.Marked(b, player.Ticked, game.VerifiedEvents)) {
			if declareWinner(game, player) {
				log.Info().
					Str("game_id", game.ID).
					Str("winner", player.Username).
					Msg("Winner declared")
			}
			return nil
		}
	}
	return nil
}

// playerBoard returns the player's personal board, deriving the shared
// static layout when no per-player board was generated.
func playerBoard(game *model.Game, player *model.Player) (*model.Board, error) {
	if player.Board != nil {
		return player.Board, nil
	}
	return board.Static(game.Events, game.BoardSize, game.AddFreeSpace, game.FreeSpaceText)
}
