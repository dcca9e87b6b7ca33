package engine

import (
	"lukechampine.com/frand"

	"github.com/hailam/chesscore/internal/board"
)

// Move ordering tiers. Within a tier moves sort by the tier's own score:
// SEE for captures, recency for killers, history for the remaining quiets.
const (
	ttMoveScore      = 1 << 30
	goodCaptureScore = 1 << 28
	killerScore      = 1 << 26
	badCaptureScore  = -(1 << 28)
)

const (
	historyMax      = 16384
	historyBonusMax = 1200
)

func historyBonus(depth int) int { return min(16*depth*depth, historyBonusMax) }

// History scores quiet moves by side, origin and destination.
type History [2][64][64]int32

// Score returns the history value of m for side c.
func (h *History) Score(c board.Color, m board.Move) int {
	return int(h[c][m.From()][m.To()])
}

// Update applies a gravity-bounded bonus: entries saturate toward
// ±historyMax instead of growing without limit.
func (h *History) Update(c board.Color, m board.Move, bonus int) {
	v := &h[c][m.From()][m.To()]
	bonus = clamp(bonus, -historyMax, historyMax)
	*v += int32(bonus - int(*v)*abs(bonus)/historyMax)
}

// Age halves every entry.
func (h *History) Age() {
	for c := range h {
		for from := range h[c] {
			for to := range h[c][from] {
				h[c][from][to] /= 2
			}
		}
	}
}

// Clear zeroes every entry.
func (h *History) Clear() { *h = History{} }

// movePicker hands out moves lazily in score order. Equal scores come out in
// generation order.
type movePicker struct {
	moves  board.MoveList
	scores [256]int
	order  [256]uint8
	next   int
}

// pick returns the next best move with its ordering score.
func (mp *movePicker) pick() (board.Move, int, bool) {
	n := mp.moves.Len()
	if mp.next >= n {
		return board.NoMove, 0, false
	}
	best := mp.next
	for i := mp.next + 1; i < n; i++ {
		if mp.scores[i] > mp.scores[best] ||
			mp.scores[i] == mp.scores[best] && mp.order[i] < mp.order[best] {
			best = i
		}
	}
	if best != mp.next {
		mp.moves.Swap(best, mp.next)
		mp.scores[best], mp.scores[mp.next] = mp.scores[mp.next], mp.scores[best]
		mp.order[best], mp.order[mp.next] = mp.order[mp.next], mp.order[best]
	}
	m, score := mp.moves.Get(mp.next), mp.scores[mp.next]
	mp.next++
	return m, score, true
}

// scoreMoves assigns ordering scores to every move held by mp. Helper workers
// shuffle the root list first so that ties break differently per thread.
func (w *Worker) scoreMoves(mp *movePicker, ttMove board.Move, ply int) {
	if ply == 0 && w.id > 0 {
		moves := mp.moves.Slice()
		frand.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
	}

	us := w.pos.SideToMove
	killers := &w.killers[ply]
	for i, m := range mp.moves.Slice() {
		mp.order[i] = uint8(i)
		switch {
		case m == ttMove:
			mp.scores[i] = ttMoveScore
		case !m.IsQuiet():
			if see := w.pos.SEE(m); see >= 0 {
				mp.scores[i] = goodCaptureScore + see
			} else {
				mp.scores[i] = badCaptureScore + see
			}
		case m == killers[0]:
			mp.scores[i] = killerScore
		case m == killers[1]:
			mp.scores[i] = killerScore - 1
		default:
			mp.scores[i] = w.history.Score(us, m)
		}
	}
	mp.next = 0
}

// storeKiller keeps the two most recent distinct quiet cutoff moves at ply.
func (w *Worker) storeKiller(ply int, m board.Move) {
	k := &w.killers[ply]
	if k[0] != m {
		k[1] = k[0]
		k[0] = m
	}
}

// rewardQuiets credits the quiet cutoff move and penalizes the quiets tried
// before it.
func (w *Worker) rewardQuiets(best board.Move, tried []board.Move, depth int) {
	us := w.pos.SideToMove
	bonus := historyBonus(depth)
	w.history.Update(us, best, bonus)
	for _, m := range tried {
		if m != best {
			w.history.Update(us, m, -bonus)
		}
	}
}
