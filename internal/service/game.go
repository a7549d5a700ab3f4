package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bingo-server/internal/game/board"
	"bingo-server/internal/model"
)

// codeAlphabet is the character set for generated join codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CreateGameParams carries the host's game configuration.
type CreateGameParams struct {
	CreatorID       string
	BoardSize       int
	Events          []string
	VotingThreshold int
	RandomizeBoards bool
	AddFreeSpace    bool
	FreeSpaceText   string
	// GameCode is optional; when empty a unique code is generated.
	GameCode string
}

// CreateGame validates the configuration and persists a new game in the
// waiting state with an empty roster and no votes.
func (s *GameService) CreateGame(ctx context.Context, params CreateGameParams) (*model.Game, error) {
	if err := s.validateCreate(&params); err != nil {
		return nil, err
	}

	code, err := s.resolveCode(ctx, params.GameCode)
	if err != nil {
		return nil, err
	}

	game := &model.Game{
		ID:              uuid.NewString(),
		GameCode:        code,
		CreatorID:       params.CreatorID,
		BoardSize:       params.BoardSize,
		Events:          params.Events,
		VotingThreshold: params.VotingThreshold,
		RandomizeBoards: params.RandomizeBoards,
		AddFreeSpace:    params.AddFreeSpace,
		Status:          model.StatusWaiting,
		Players:         []model.Player{},
		Votes:           map[int][]string{},
		VerifiedEvents:  []int{},
		CreatedAt:       time.Now().UTC(),
	}
	if params.AddFreeSpace {
		game.FreeSpaceText = params.FreeSpaceText
		if game.FreeSpaceText == "" {
			game.FreeSpaceText = model.DefaultFreeSpaceText
		}
	}

	if err := s.store.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info().
		Str("game_id", game.ID).
		Str("game_code", game.GameCode).
		Int("board_size", game.BoardSize).
		Int("events", len(game.Events)).
		Msg("Game created")

	return game, nil
}

func (s *GameService) validateCreate(params *CreateGameParams) error {
	if params.CreatorID == "" {
		return fmt.Errorf("%w: creatorId is required", ErrInvalidInput)
	}
	if params.BoardSize < 2 {
		return fmt.Errorf("%w: boardSize must be at least 2", ErrInvalidInput)
	}
	if params.VotingThreshold < 1 || params.VotingThreshold > 100 {
		return fmt.Errorf("%w: votingThreshold must be between 1 and 100", ErrInvalidInput)
	}
	if len(params.Events) == 0 {
		return fmt.Errorf("%w: events are required", ErrInvalidInput)
	}
	if len(params.Events) > s.opts.MaxEventCount {
		return fmt.Errorf("%w: at most %d events allowed", ErrInvalidInput, s.opts.MaxEventCount)
	}
	for i, event := range params.Events {
		trimmed := strings.TrimSpace(event)
		if trimmed == "" {
			return fmt.Errorf("%w: event %d is empty", ErrInvalidInput, i)
		}
		if len(trimmed) > s.opts.MaxEventLength {
			return fmt.Errorf("%w: event %d exceeds %d characters", ErrInvalidInput, i, s.opts.MaxEventLength)
		}
		params.Events[i] = trimmed
	}

	required := board.RequiredCellCount(params.BoardSize, params.AddFreeSpace)
	if len(params.Events) < required {
		return fmt.Errorf("%w: need %d, got %d", board.ErrInsufficientEvents, required, len(params.Events))
	}
	return nil
}

// resolveCode validates a host-provided code or generates a fresh one that
// does not collide with a live game.
func (s *GameService) resolveCode(ctx context.Context, provided string) (string, error) {
	if provided != "" {
		code := strings.ToUpper(strings.TrimSpace(provided))
		if len(code) != s.opts.CodeLength || !validCode(code) {
			return "", fmt.Errorf("%w: gameCode must be %d letters or digits", ErrInvalidInput, s.opts.CodeLength)
		}
		inUse, err := s.store.CodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check game code: %w", err)
		}
		if inUse {
			return "", ErrGameCodeTaken
		}
		return code, nil
	}

	for attempt := 0; attempt < s.opts.CodeAttempts; attempt++ {
		code := s.randomCode()
		inUse, err := s.store.CodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check game code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	// Codes recycle as games expire; exhausting the attempts means the
	// keyspace is saturated.
	return "", ErrGameCodeTaken
}

func (s *GameService) randomCode() string {
	buf := make([]byte, s.opts.CodeLength)
	s.withRand(func(rng *rand.Rand) {
		for i := range buf {
			buf[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
		}
	})
	return string(buf)
}

func validCode(code string) bool {
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return false
		}
	}
	return true
}

// GetGame retrieves a game by id.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	if gameID == "" {
		return nil, fmt.Errorf("%w: gameId is required", ErrInvalidInput)
	}
	return s.store.Get(ctx, gameID)
}

// SearchGame finds a game by its join code, case-insensitively.
func (s *GameService) SearchGame(ctx context.Context, code string) (*model.Game, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: gameCode is required", ErrInvalidInput)
	}
	return s.store.GetByCode(ctx, code)
}

// ListGamesByCreator returns the games hosted by a user, newest first.
func (s *GameService) ListGamesByCreator(ctx context.Context, creatorID string) ([]*model.Game, error) {
	if creatorID == "" {
		return nil, fmt.Errorf("%w: creatorId is required", ErrInvalidInput)
	}
	return s.store.ListByCreator(ctx, creatorID)
}
