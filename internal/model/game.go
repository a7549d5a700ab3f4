// Package model defines the data types for the social bingo backend.
package model

import (
	"math"
	"strings"
	"time"
)

// Game status values. Status only moves forward: waiting -> started -> finished.
const (
	StatusWaiting  = "waiting"
	StatusStarted  = "started"
	StatusFinished = "finished"
)

// FreeCellIndex is the EventIndex of a free-space cell. Free cells reference
// no event and always count as marked.
const FreeCellIndex = -1

// DefaultFreeSpaceText is used when a game enables the free space without
// providing display text.
const DefaultFreeSpaceText = "Free Space"

// Game is the persisted aggregate for one bingo session. It is owned
// exclusively by the backend and mutated only through the service layer;
// the store adapter handles (de)serialization so the rest of the code
// always sees this one canonical form.
type Game struct {
	ID              string           `json:"id"`
	GameCode        string           `json:"gameCode"`
	CreatorID       string           `json:"creatorId"`
	BoardSize       int              `json:"boardSize"`
	Events          []string         `json:"events"`
	VotingThreshold int              `json:"votingThreshold"`
	RandomizeBoards bool             `json:"randomizeBoards"`
	AddFreeSpace    bool             `json:"addFreeSpace"`
	FreeSpaceText   string           `json:"freeSpaceText,omitempty"`
	Status          string           `json:"status"`
	Players         []Player         `json:"players"`
	Votes           map[int][]string `json:"votes"`
	VerifiedEvents  []int            `json:"verifiedEvents"`
	Winner          string           `json:"winner,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`

	// Revision is the optimistic-concurrency token assigned by the store.
	// It is not part of the document body.
	Revision int64 `json:"-"`
}

// Player is one roster entry, embedded in a Game. Entries keep join order
// and are append-only; only Ticked and Board mutate after admission.
type Player struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Ticked    []int  `json:"ticked"`
	Board     *Board `json:"board,omitempty"`
	BoardHash string `json:"boardHash,omitempty"`
}

// Board is a player's personal board layout. Cells is row-major with
// Size*Size entries; flat index i maps to row i/Size, column i%Size.
type Board struct {
	Size  int    `json:"size"`
	Cells []Cell `json:"cells"`
}

// Cell is one board cell. EventIndex references the position in the game's
// event pool, or FreeCellIndex for the free space.
type Cell struct {
	Text       string `json:"text"`
	EventIndex int    `json:"eventIndex"`
}

// RequiredVotes returns the vote count needed to verify an event:
// ceil(players * threshold / 100), computed against the current roster.
func (g *Game) RequiredVotes() int {
	return int(math.Ceil(float64(len(g.Players)) * float64(g.VotingThreshold) / 100))
}

// PlayerByID returns the roster entry for userID, or nil.
func (g *Game) PlayerByID(userID string) *Player {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

// HasUsername reports whether any player already uses username, compared
// after trimming and case folding.
func (g *Game) HasUsername(username string) bool {
	want := NormalizeUsername(username)
	for i := range g.Players {
		if NormalizeUsername(g.Players[i].Username) == want {
			return true
		}
	}
	return false
}

// VoteCount returns how many distinct users have voted for eventIndex.
func (g *Game) VoteCount(eventIndex int) int {
	return len(g.Votes[eventIndex])
}

// HasVoted reports whether userID already voted for eventIndex.
func (g *Game) HasVoted(eventIndex int, userID string) bool {
	for _, id := range g.Votes[eventIndex] {
		if id == userID {
			return true
		}
	}
	return false
}

// IsVerified reports whether eventIndex has crossed the voting threshold.
func (g *Game) IsVerified(eventIndex int) bool {
	for _, idx := range g.VerifiedEvents {
		if idx == eventIndex {
			return true
		}
	}
	return false
}

// NormalizeUsername trims and case-folds a username for uniqueness checks.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// HasTicked reports whether the player personally marked eventIndex.
func (p *Player) HasTicked(eventIndex int) bool {
	for _, idx := range p.Ticked {
		if idx == eventIndex {
			return true
		}
	}
	return false
}
