package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"bingo-server/internal/model"
	"bingo-server/internal/service"
)

// Board sizes the public API accepts. The core geometry is more general;
// the product only ships 3x3 through 5x5.
var allowedBoardSizes = map[int]bool{3: true, 4: true, 5: true}

type createGameRequest struct {
	CreatorID       string   `json:"creatorId"`
	BoardSize       int      `json:"boardSize"`
	Events          []string `json:"events"`
	VotingThreshold int      `json:"votingThreshold"`
	RandomizeBoards bool     `json:"randomizeBoards"`
	AddFreeSpace    bool     `json:"addFreeSpace"`
	FreeSpaceText   string   `json:"freeSpaceText"`
	GameCode        string   `json:"gameCode"`
}

type joinGameRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type searchGameRequest struct {
	GameCode string `json:"gameCode"`
}

type startGameRequest struct {
	UserID string `json:"userId"`
}

type voteEventRequest struct {
	UserID     string `json:"userId"`
	EventIndex *int   `json:"eventIndex"`
}

type gameResponse struct {
	Game *model.Game `json:"game"`
}

type voteResponse struct {
	Result *service.VoteResult `json:"result"`
	Game   *model.Game         `json:"game"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeSuccess(w, map[string]string{"userId": s.ids.GetOrCreate(w, r)})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !allowedBoardSizes[req.BoardSize] {
		writeError(w, fmt.Errorf("%w: boardSize must be 3, 4, or 5", service.ErrInvalidInput))
		return
	}

	game, err := s.svc.CreateGame(r.Context(), service.CreateGameParams{
		CreatorID:       s.userID(w, r, req.CreatorID),
		BoardSize:       req.BoardSize,
		Events:          req.Events,
		VotingThreshold: req.VotingThreshold,
		RandomizeBoards: req.RandomizeBoards,
		AddFreeSpace:    req.AddFreeSpace,
		FreeSpaceText:   req.FreeSpaceText,
		GameCode:        req.GameCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, gameResponse{Game: game})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	game, err := s.svc.GetGame(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, gameResponse{Game: game})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	creatorID := r.URL.Query().Get("creatorId")
	if creatorID == "" {
		creatorID = s.ids.GetOrCreate(w, r)
	}
	games, err := s.svc.ListGamesByCreator(r.Context(), creatorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"games": games})
}

func (s *Server) handleSearchGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req searchGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	game, err := s.svc.SearchGame(r.Context(), req.GameCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, gameResponse{Game: game})
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req joinGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gameID := ps.ByName("id")
	userID := s.userID(w, r, req.UserID)

	var game *model.Game
	err := s.withConflictRetry(gameID, func() error {
		var joinErr error
		game, _, joinErr = s.svc.Join(r.Context(), gameID, userID, req.Username)
		return joinErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, gameResponse{Game: game})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req startGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gameID := ps.ByName("id")
	userID := s.userID(w, r, req.UserID)

	var game *model.Game
	err := s.withConflictRetry(gameID, func() error {
		var startErr error
		game, startErr = s.svc.Start(r.Context(), gameID, userID)
		return startErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, gameResponse{Game: game})
}

func (s *Server) handleVoteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req voteEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.EventIndex == nil {
		writeError(w, fmt.Errorf("%w: eventIndex is required", service.ErrInvalidInput))
		return
	}
	gameID := ps.ByName("id")
	userID := s.userID(w, r, req.UserID)

	var (
		result *service.VoteResult
		game   *model.Game
	)
	err := s.withConflictRetry(gameID, func() error {
		var voteErr error
		result, game, voteErr = s.svc.CastVote(r.Context(), gameID, userID, *req.EventIndex)
		return voteErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, voteResponse{Result: result, Game: game})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := s.svc.Sweep(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, result)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("id")
	// Missing games still get a feed; the initial snapshot is just omitted.
	initial, err := s.svc.GetGame(r.Context(), gameID)
	if err != nil {
		initial = nil
	}
	s.hub.Subscribe(w, r, gameID, initial)
}
