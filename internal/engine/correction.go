package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

const (
	correctionSize = 1 << 14
	correctionMask = correctionSize - 1

	// Entries are kept in 1/correctionGrain centipawns.
	correctionGrain = 16
	correctionLimit = 128 * correctionGrain
)

// CorrectionHistory learns how far the static evaluation misses search
// results for a given pawn structure and side to move. Get is added to the
// static evaluation before pruning decisions.
type CorrectionHistory struct {
	table [2][correctionSize]int16
}

// Get returns the correction for pos in centipawns.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	return int(ch.table[pos.SideToMove][pos.PawnKey&correctionMask]) / correctionGrain
}

// Update moves the entry for pos toward the observed error searchScore -
// staticEval, weighted by depth.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	if depth < 1 {
		return
	}
	entry := &ch.table[pos.SideToMove][pos.PawnKey&correctionMask]
	target := clamp((searchScore-staticEval)*correctionGrain, -correctionLimit, correctionLimit)
	weight := min(depth+1, 16)
	old := int(*entry)
	*entry = int16(clamp(old+(target-old)*weight/64, -correctionLimit, correctionLimit))
}

// Clear resets every entry.
func (ch *CorrectionHistory) Clear() { clear(ch.table[0][:]); clear(ch.table[1][:]) }

// Age halves every entry.
func (ch *CorrectionHistory) Age() {
	for c := range ch.table {
		for i := range ch.table[c] {
			ch.table[c][i] /= 2
		}
	}
}
