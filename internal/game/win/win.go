// Package win detects completed lines on a bingo board.
package win

import "bingo-server/internal/model"

// Check reports whether any full row, full column, or either diagonal of an
// n x n board is completely marked. marked is row-major with n*n entries;
// the first satisfied line wins, no need to enumerate the rest.
func Check(n int, marked []bool) bool {
	if n < 1 || len(marked) < n*n {
		return false
	}

	// Rows.
	for row := 0; row < n; row++ {
		full := true
		for col := 0; col < n; col++ {
			if !marked[row*n+col] {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	// Columns.
	for col := 0; col < n; col++ {
		full := true
		for row := 0; row < n; row++ {
			if !marked[row*n+col] {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	// Main diagonal.
	full := true
	for i := 0; i < n; i++ {
		if !marked[i*n+i] {
			full = false
			break
		}
	}
	if full {
		return true
	}

	// Anti-diagonal.
	for i := 0; i < n; i++ {
		if !marked[i*n+(n-1-i)] {
			return false
		}
	}
	return true
}

// Marked maps a player's board onto the boolean grid Check consumes.
// A free cell is always marked; any other cell is marked once the event it
// references is both personally ticked and community-verified.
func Marked(b *model.Board, ticked, verified []int) []bool {
	tickedSet := toSet(ticked)
	verifiedSet := toSet(verified)

	marked := make([]bool, len(b.Cells))
	for i, c := range b.Cells {
		if c.EventIndex == model.FreeCellIndex {
			marked[i] = true
			continue
		}
		marked[i] = tickedSet[c.EventIndex] && verifiedSet[c.EventIndex]
	}
	return marked
}

func toSet(indices []int) map[int]bool {
	set := make(map[int]bool, len(indices))
	for _, idx := range indices {
		set[idx] = true
	}
	return set
}
