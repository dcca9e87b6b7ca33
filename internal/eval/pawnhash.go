package eval

import "github.com/hailam/chesscore/internal/board"

// passedBonus is indexed by the pawn's relative rank.
var passedBonus = [8][2]int{{0, 0}, {5, 10}, {10, 20}, {15, 40}, {30, 70}, {50, 120}, {80, 200}, {0, 0}}

const (
	doubledMg  = -15
	doubledEg  = -20
	isolatedMg = -20
	isolatedEg = -25
)

var adjacentFiles [8]board.Bitboard

// passedMask[c][sq] holds the squares in front of sq on its own and the
// adjacent files, as seen by color c.
var passedMask [2][64]board.Bitboard

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= board.FileMask[f-1]
		}
		if f < 7 {
			adjacentFiles[f] |= board.FileMask[f+1]
		}
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		span := adjacentFiles[sq.File()] | board.FileMask[sq.File()]
		for r := sq.Rank() + 1; r < 8; r++ {
			passedMask[board.White][sq] |= span & board.RankMask[r]
		}
		for r := sq.Rank() - 1; r >= 0; r-- {
			passedMask[board.Black][sq] |= span & board.RankMask[r]
		}
	}
}

// PawnEntry caches the pawn-structure score of one pawn configuration.
type PawnEntry struct {
	Key    uint64
	Mg, Eg int16
}

// PawnTable is a direct-mapped cache keyed by the position's pawn key.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable allocates a table; size is rounded down to a power of two.
func NewPawnTable(size int) *PawnTable {
	n := 1
	for n*2 <= size {
		n *= 2
	}
	return &PawnTable{entries: make([]PawnEntry, n), mask: uint64(n - 1)}
}

// Probe returns the cached scores for key.
func (t *PawnTable) Probe(key uint64) (mg, eg int, ok bool) {
	e := &t.entries[key&t.mask]
	if e.Key != key {
		return 0, 0, false
	}
	return int(e.Mg), int(e.Eg), true
}

// Store records the scores for key.
func (t *PawnTable) Store(key uint64, mg, eg int) {
	t.entries[key&t.mask] = PawnEntry{Key: key, Mg: int16(mg), Eg: int16(eg)}
}

// Clear empties the table.
func (t *PawnTable) Clear() { clear(t.entries) }

// Evaluate returns the white-relative pawn-structure score of pos, using the
// cache when possible.
func (t *PawnTable) Evaluate(pos *board.Position) (mg, eg int) {
	if mg, eg, ok := t.Probe(pos.PawnKey); ok {
		return mg, eg
	}
	mg, eg = pawnStructure(pos)
	t.Store(pos.PawnKey, mg, eg)
	return mg, eg
}

func pawnStructure(pos *board.Position) (mg, eg int) {
	for c, sign := board.White, 1; c <= board.Black; c, sign = c+1, -1 {
		ours := pos.Pieces[c][board.Pawn]
		theirs := pos.Pieces[c.Other()][board.Pawn]
		for f := 0; f < 8; f++ {
			n := (ours & board.FileMask[f]).PopCount()
			if n > 1 {
				mg += sign * doubledMg * (n - 1)
				eg += sign * doubledEg * (n - 1)
			}
			if n > 0 && ours&adjacentFiles[f] == 0 {
				mg += sign * isolatedMg * n
				eg += sign * isolatedEg * n
			}
		}
		for bb := ours; bb != 0; {
			sq := bb.PopLSB()
			if passedMask[c][sq]&theirs == 0 {
				r := sq.RelativeRank(c)
				mg += sign * passedBonus[r][0]
				eg += sign * passedBonus[r][1]
			}
		}
	}
	return mg, eg
}
