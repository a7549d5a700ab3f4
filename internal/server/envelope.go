package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"bingo-server/internal/game/board"
	"bingo-server/internal/repository"
	"bingo-server/internal/service"
)

// Envelope is the uniform response body for every operation.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a stable machine code plus a human-readable message.
// Internal details and stack traces never reach the response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Machine codes for the error taxonomy.
const (
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeNotHost       = "not_host"
	CodeInvalidState  = "invalid_state"
	CodeNotJoinable   = "not_joinable"
	CodeGameFull      = "game_full"
	CodeUsernameTaken = "username_taken"
	CodeAlreadyVoted  = "already_voted"
	CodeInsufficient  = "insufficient_events"
	CodeNotPlayer     = "not_player"
	CodeCodeTaken     = "code_taken"
	CodeConflict      = "concurrent_modification"
	CodeUnknown       = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// writeError converts a typed error into the envelope, preserving the error
// kind. Unknown errors are logged with the original message and returned as
// a generic internal error.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if code == CodeUnknown {
		log.Error().Err(err).Msg("Unhandled error")
		msg = "internal error"
	}
	writeJSON(w, status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: msg}})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrEventOutOfRange):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, board.ErrInsufficientEvents):
		return http.StatusBadRequest, CodeInsufficient
	case errors.Is(err, repository.ErrGameNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, service.ErrNotHost):
		return http.StatusForbidden, CodeNotHost
	case errors.Is(err, service.ErrNotPlayer):
		return http.StatusForbidden, CodeNotPlayer
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, CodeInvalidState
	case errors.Is(err, service.ErrGameNotJoinable):
		return http.StatusConflict, CodeNotJoinable
	case errors.Is(err, service.ErrGameFull):
		return http.StatusConflict, CodeGameFull
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, CodeUsernameTaken
	case errors.Is(err, service.ErrAlreadyVoted):
		return http.StatusConflict, CodeAlreadyVoted
	case errors.Is(err, service.ErrGameCodeTaken):
		return http.StatusConflict, CodeCodeTaken
	case errors.Is(err, repository.ErrRevisionConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeUnknown
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return service.ErrInvalidInput
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.Join(service.ErrInvalidInput, err)
	}
	return nil
}
