package engine

import (
	"time"

	"golang.org/x/exp/constraints"

	"github.com/hailam/chesscore/internal/board"
)

// Score bounds. Mate scores count plies from the root: a position mated at
// ply p scores -(MateScore - p).
const (
	Infinity      = 32000
	MateScore     = 31000
	MaxPly        = 128
	MateThreshold = MateScore - MaxPly
)

// IsMate reports whether score encodes a forced mate for either side.
func IsMate(score int) bool { return abs(score) >= MateThreshold }

// MateIn converts a mate score to full moves, negative when the side to move
// is being mated.
func MateIn(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score + 1) / 2
}

// scoreToTT makes a mate score relative to the stored node instead of the root.
func scoreToTT(score, ply int) int {
	switch {
	case score >= MateThreshold:
		return score + ply
	case score <= -MateThreshold:
		return score - ply
	}
	return score
}

// scoreFromTT is the inverse of scoreToTT at the probing node's ply. Torn
// slots can hold any int16, so the result is bounded by MateScore.
func scoreFromTT(score, ply int) int {
	switch {
	case score >= MateThreshold:
		score -= ply
	case score <= -MateThreshold:
		score += ply
	}
	return clamp(score, -MateScore, MateScore)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Limits bounds a single search. Zero values mean no limit.
type Limits struct {
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int
	MoveTime  time.Duration
	Depth     int
	Nodes     uint64
	Infinite  bool

	// History holds the zobrist keys of the game positions that preceded the
	// root, oldest first. The root itself is not included.
	History []uint64
}

// SearchResult is the outcome of a search: the best move with its score and
// principal variation from the deepest completed iteration.
type SearchResult struct {
	Move       board.Move
	Ponder     board.Move
	Score      int
	PV         []board.Move
	Depth      int
	SelDepth   int
	Nodes      uint64
	Generation uint8
	Worker     int
	Elapsed    time.Duration
}

// Info is reported after each completed iteration of the main worker.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	HashFull int // permille
	PV       []board.Move
}
