// Package board generates personal bingo boards from a game's event pool.
package board

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"bingo-server/internal/model"
)

// DefaultMaxAttempts bounds the reshuffle loop when a generated board
// collides with an existing one. Uniqueness is best effort: once the
// attempts are exhausted the colliding board is accepted.
const DefaultMaxAttempts = 64

// Errors for board generation.
var (
	ErrInsufficientEvents = errors.New("not enough events to fill the board")
	ErrInvalidSize        = errors.New("board size must be at least 2")
)

// RequiredCellCount returns how many events a board consumes:
// size*size, minus one when the center is a free space.
func RequiredCellCount(size int, addFreeSpace bool) int {
	n := size * size
	if addFreeSpace {
		n--
	}
	return n
}

// Generate builds one board from the event pool. The pool is shuffled with
// an unbiased permutation, the first RequiredCellCount entries are taken
// without replacement, and the free-space sentinel (if enabled) is spliced
// into the exact center of the flat sequence, shifting later entries by one.
//
// existing holds the Key of every board already handed out in this game;
// Generate reshuffles up to DefaultMaxAttempts times to avoid a duplicate
// and returns unique=false if it has to accept a collision. The caller is
// expected to log the collision, not fail the operation.
func Generate(rng *rand.Rand, pool []string, size int, addFreeSpace bool, freeText string, existing map[string]struct{}) (b *model.Board, unique bool, err error) {
	if size < 2 {
		return nil, false, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	required := RequiredCellCount(size, addFreeSpace)
	if len(pool) < required {
		return nil, false, fmt.Errorf("%w: need %d, got %d", ErrInsufficientEvents, required, len(pool))
	}
	if freeText == "" {
		freeText = model.DefaultFreeSpaceText
	}

	for attempt := 0; ; attempt++ {
		b = build(rng, pool, size, addFreeSpace, freeText, required)
		if _, dup := existing[Key(b)]; !dup {
			return b, true, nil
		}
		if attempt >= DefaultMaxAttempts {
			return b, false, nil
		}
	}
}

func build(rng *rand.Rand, pool []string, size int, addFreeSpace bool, freeText string, required int) *model.Board {
	perm := rng.Perm(len(pool))

	cells := make([]model.Cell, 0, size*size)
	for _, idx := range perm[:required] {
		cells = append(cells, model.Cell{Text: pool[idx], EventIndex: idx})
	}

	if addFreeSpace {
		center := size * size / 2
		cells = append(cells, model.Cell{})
		copy(cells[center+1:], cells[center:])
		cells[center] = model.Cell{Text: freeText, EventIndex: model.FreeCellIndex}
	}

	return &model.Board{Size: size, Cells: cells}
}

// Static builds the non-randomized board: events laid out in pool order,
// with the free space (if enabled) spliced into the center. This is the
// layout every player shares when randomizeBoards is off.
func Static(pool []string, size int, addFreeSpace bool, freeText string) (*model.Board, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	required := RequiredCellCount(size, addFreeSpace)
	if len(pool) < required {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientEvents, required, len(pool))
	}
	if freeText == "" {
		freeText = model.DefaultFreeSpaceText
	}

	cells := make([]model.Cell, 0, size*size)
	for i := 0; i < required; i++ {
		cells = append(cells, model.Cell{Text: pool[i], EventIndex: i})
	}
	if addFreeSpace {
		center := size * size / 2
		cells = append(cells, model.Cell{})
		copy(cells[center+1:], cells[center:])
		cells[center] = model.Cell{Text: freeText, EventIndex: model.FreeCellIndex}
	}
	return &model.Board{Size: size, Cells: cells}, nil
}

// Key serializes a board's flat event-index sequence for duplicate checks.
func Key(b *model.Board) string {
	var sb strings.Builder
	for i, c := range b.Cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(c.EventIndex))
	}
	return sb.String()
}

// Hash returns the content-addressed fingerprint stored on the player.
func Hash(b *model.Board) string {
	sum := sha256.Sum256([]byte(Key(b)))
	return hex.EncodeToString(sum[:])
}
