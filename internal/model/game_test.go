package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredVotes(t *testing.T) {
	tests := []struct {
		name      string
		players   int
		threshold int
		want      int
	}{
		{"single player half", 1, 50, 1},
		{"two players half", 2, 50, 1},
		{"three players half rounds up", 3, 50, 2},
		{"four players half", 4, 50, 2},
		{"unanimous", 3, 100, 3},
		{"one percent still needs a vote", 10, 1, 1},
		{"empty roster", 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{
				Players:         make([]Player, tt.players),
				VotingThreshold: tt.threshold,
			}
			assert.Equal(t, tt.want, g.RequiredVotes())
		})
	}
}

func TestHasUsername(t *testing.T) {
	g := &Game{Players: []Player{{UserID: "u1", Username: "Alice"}}}

	assert.True(t, g.HasUsername("alice"))
	assert.True(t, g.HasUsername("  ALICE  "))
	assert.False(t, g.HasUsername("bob"))
}

func TestVoteBookkeeping(t *testing.T) {
	g := &Game{
		Votes:          map[int][]string{2: {"u1", "u2"}},
		VerifiedEvents: []int{2},
	}

	assert.Equal(t, 2, g.VoteCount(2))
	assert.Zero(t, g.VoteCount(7))
	assert.True(t, g.HasVoted(2, "u1"))
	assert.False(t, g.HasVoted(2, "u3"))
	assert.True(t, g.IsVerified(2))
	assert.False(t, g.IsVerified(0))
}

func TestPlayerByIDReturnsStableReference(t *testing.T) {
	g := &Game{Players: []Player{{UserID: "u1"}, {UserID: "u2"}}}

	p := g.PlayerByID("u2")
	assert.NotNil(t, p)
	p.Ticked = append(p.Ticked, 3)

	// The returned pointer aliases the roster entry.
	assert.Equal(t, []int{3}, g.Players[1].Ticked)
	assert.Nil(t, g.PlayerByID("ghost"))
}
