// Package eval provides the static evaluators consulted by the search. Each
// evaluator is owned by one worker and follows the worker's make/unmake
// sequence through Push and Pop so it can update its state incrementally.
package eval

import "github.com/hailam/chesscore/internal/board"

// Evaluator scores positions from the side to move's point of view.
//
// Push is called with the position before m is made, Pop after it is
// unmade. PushNull and Pop bracket a null move.
type Evaluator interface {
	Reset(pos *board.Position)
	Push(pos *board.Position, m board.Move)
	PushNull()
	Pop()
	Evaluate(pos *board.Position) int
}

// Factory builds one Evaluator per search worker.
type Factory func() Evaluator

// maxStack bounds the push depth of the incremental stacks.
const maxStack = 256

// pieceValue is the material value used by the classical terms, indexed by
// board.PieceType.
var pieceValue = [6]int{100, 320, 330, 500, 900, 0}

// phaseWeight counts game phase: 24 with all minor and major pieces on the board.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24
