package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

func testWorker(t *testing.T, id int, fen string) *Worker {
	t.Helper()
	return testWorkerAt(id, mustFEN(t, fen), Limits{})
}

func testWorkerAt(id int, pos *board.Position, limits Limits) *Worker {
	w := newWorker(id, NewTranspositionTable(1), eval.NewClassical())
	s := &searchShared{limits: limits, tm: NewTimeManager(limits, pos.SideToMove, 0, time.Now())}
	w.prepare(pos, s)
	return w
}

func play(t *testing.T, w *Worker, moves ...string) []board.Move {
	t.Helper()
	var out []board.Move
	for _, s := range moves {
		m, err := w.pos.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		w.makeMove(m)
		out = append(out, m)
	}
	return out
}

func TestMoveStackMismatch(t *testing.T) {
	is := is.New(t)
	w := testWorker(t, 0, board.StartFEN)
	play(t, w, "e2e4")
	d4, err := board.NewPosition().ParseMove("d2d4")
	is.NoErr(err)

	err = func() (err error) {
		defer recoverInvariant(&err)
		w.unmakeMove(d4)
		return nil
	}()
	is.True(errors.Is(err, ErrInvariantViolation))
}

func TestMoveStackRestores(t *testing.T) {
	is := is.New(t)
	w := testWorker(t, 0, board.StartFEN)
	before := w.pos.Hash
	moves := play(t, w, "g1f3", "d7d5", "e2e4")
	w.makeNullMove()
	w.unmakeNullMove()
	for i := len(moves) - 1; i >= 0; i-- {
		w.unmakeMove(moves[i])
	}
	is.Equal(w.pos.Hash, before)
	is.Equal(w.stack.n, 0)
}

func TestRepetitionInTree(t *testing.T) {
	is := is.New(t)
	w := testWorker(t, 0, board.StartFEN)
	play(t, w, "g1f3", "g8f6", "f3g1", "f6g8")
	is.True(w.isRepetition(4))
}

func TestRepetitionGameHistory(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	var keys []uint64
	cycle := func() {
		for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
			m, err := pos.ParseMove(s)
			is.NoErr(err)
			keys = append(keys, pos.Hash)
			pos.MakeMove(m)
		}
	}

	cycle()
	w := testWorkerAt(0, pos.Copy(), Limits{History: keys})
	is.True(!w.isRepetition(0)) // second occurrence

	cycle()
	w = testWorkerAt(0, pos.Copy(), Limits{History: keys})
	is.True(w.isRepetition(0)) // third occurrence
}

func TestRepetitionAcrossNullMove(t *testing.T) {
	is := is.New(t)
	w := testWorker(t, 0, "4k3/8/8/8/8/8/8/4K1N1 w - - 0 1")
	play(t, w, "g1f3")
	w.makeNullMove()
	play(t, w, "f3g1")
	w.makeNullMove()
	is.True(!w.isRepetition(4))
}

func TestQuiesceStandPat(t *testing.T) {
	is := is.New(t)
	w := testWorker(t, 0, "4k3/8/8/3q4/8/8/8/3QK3 w - - 0 1")
	score := w.quiesce(-Infinity, Infinity, 0, 0)
	// Qxd5 wins the queen.
	is.True(score > 700)
	is.Equal(w.pvLen[0], 1)
	is.Equal(w.pv[0][0].String(), "d1d5")
}

func TestMovePickerOrdering(t *testing.T) {
	is := is.New(t)
	w := testWorker(t, 0, "4k3/8/8/3q4/2p5/8/3R4/3QK3 w - - 0 1")

	var mp movePicker
	w.pos.GenerateLegalMoves(&mp.moves)
	tt, err := w.pos.ParseMove("e1f2")
	is.NoErr(err)
	killer, err := w.pos.ParseMove("d2a2")
	is.NoErr(err)
	w.killers[0][0] = killer
	w.scoreMoves(&mp, tt, 0)

	var order []string
	for {
		m, _, ok := mp.pick()
		if !ok {
			break
		}
		order = append(order, m.String())
	}
	is.Equal(order[0], "e1f2") // table move
	is.Equal(order[1], "d2d5") // rook takes queen, defended by nothing
	is.Equal(order[2], "d2a2") // killer
	is.Equal(len(order), mp.moves.Len())
}

func TestHistoryGravity(t *testing.T) {
	is := is.New(t)
	var h History
	m, err := board.NewPosition().ParseMove("e2e4")
	is.NoErr(err)
	for range 1000 {
		h.Update(board.White, m, historyBonus(20))
	}
	is.True(h.Score(board.White, m) <= historyMax)
	is.True(h.Score(board.White, m) > historyMax/2)
	is.Equal(h.Score(board.Black, m), 0)

	h.Age()
	is.True(h.Score(board.White, m) <= historyMax/2)
	for range 1000 {
		h.Update(board.White, m, -historyBonus(20))
	}
	is.True(h.Score(board.White, m) >= -historyMax)
}

func TestCorrectionHistory(t *testing.T) {
	is := is.New(t)
	var ch CorrectionHistory
	pos := board.NewPosition()
	for range 200 {
		ch.Update(pos, 100, 40, 8)
	}
	is.True(ch.Get(pos) > 50 && ch.Get(pos) <= 60)
	ch.Clear()
	is.Equal(ch.Get(pos), 0)
}
