package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// frame records one applied move (or null move) on a worker's search path
// together with the key of the position it was made from.
type frame struct {
	move     board.Move
	null     bool
	key      uint64
	undo     board.UndoInfo
	nullUndo board.NullUndo
}

// moveStack is the strict LIFO record of the moves a worker has applied to
// its position. Every unmake must match the most recent make; anything else
// is an invariant violation.
type moveStack struct {
	frames [MaxPly + 8]frame
	n      int
}

func (s *moveStack) reset() { s.n = 0 }

func (s *moveStack) push() *frame {
	if s.n == len(s.frames) {
		violate("move stack overflow at depth %d", s.n)
	}
	f := &s.frames[s.n]
	s.n++
	return f
}

func (s *moveStack) pop(m board.Move, null bool) *frame {
	if s.n == 0 {
		violate("unmake %s on empty move stack", m)
	}
	f := &s.frames[s.n-1]
	if f.null != null || f.move != m {
		violate("unmake %s does not match last make %s", m, f.move)
	}
	s.n--
	return f
}

// makeMove applies m to the worker's position and evaluator.
func (w *Worker) makeMove(m board.Move) {
	f := w.stack.push()
	w.eval.Push(w.pos, m)
	f.move, f.null, f.key = m, false, w.pos.Hash
	f.undo = w.pos.MakeMove(m)
}

func (w *Worker) unmakeMove(m board.Move) {
	f := w.stack.pop(m, false)
	w.pos.UnmakeMove(m, f.undo)
	if w.pos.Hash != f.key {
		violate("key mismatch after unmake %s: %016x != %016x", m, w.pos.Hash, f.key)
	}
	w.eval.Pop()
}

func (w *Worker) makeNullMove() {
	f := w.stack.push()
	w.eval.PushNull()
	f.move, f.null, f.key = board.NoMove, true, w.pos.Hash
	f.nullUndo = w.pos.MakeNullMove()
}

func (w *Worker) unmakeNullMove() {
	f := w.stack.pop(board.NoMove, true)
	w.pos.UnmakeNullMove(f.nullUndo)
	if w.pos.Hash != f.key {
		violate("key mismatch after null unmake")
	}
	w.eval.Pop()
}

// lastWasNull reports whether the position was reached by a null move.
func (w *Worker) lastWasNull() bool {
	return w.stack.n > 0 && w.stack.frames[w.stack.n-1].null
}

// isRepetition scans same-side positions back to the last irreversible move.
// A single earlier occurrence inside the search tree counts as a draw; an
// occurrence only in the game history needs a second one.
func (w *Worker) isRepetition(ply int) bool {
	key := w.pos.Hash
	frames := w.stack.frames[:w.stack.n]
	hist := w.gameKeys
	limit := w.pos.HalfMoveClock
	seen := 0

	for back := 2; back <= limit; back += 2 {
		i := len(frames) - back
		var k uint64
		if i >= 0 {
			if frames[i].null || frames[i+1].null {
				return false
			}
			k = frames[i].key
		} else {
			if i == -1 && len(frames) > 0 && frames[0].null {
				return false
			}
			j := len(hist) + i
			if j < 0 {
				return false
			}
			k = hist[j]
		}
		if k != key {
			continue
		}
		if back <= ply {
			return true
		}
		seen++
		if seen >= 2 {
			return true
		}
	}
	return false
}
