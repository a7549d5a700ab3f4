package service

import "errors"

// Domain-rule errors. The HTTP layer maps each onto a stable envelope code;
// none of them is retryable by resubmitting identical input.
var (
	ErrInvalidUsername = errors.New("username must be 1-20 characters")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrGameNotJoinable = errors.New("game can no longer be joined")
	ErrGameFull        = errors.New("game is full")
	ErrNotHost         = errors.New("only the host can start the game")
	ErrInvalidState    = errors.New("operation not allowed in the game's current state")
	ErrNotPlayer       = errors.New("user is not a player in this game")
	ErrEventOutOfRange = errors.New("event index out of range")
	ErrAlreadyVoted    = errors.New("already voted for this event")
	ErrGameCodeTaken   = errors.New("game code already in use")
	ErrInvalidInput    = errors.New("invalid input")
)
