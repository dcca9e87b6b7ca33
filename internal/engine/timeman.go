package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

const minThink = time.Millisecond

// stabilityScale shrinks the soft budget the longer the best move holds.
var stabilityScale = [...]float64{1.6, 1.3, 1.1, 1.0, 0.85, 0.7}

// TimeManager turns clock limits into a soft budget, checked between
// iterations, and a hard deadline that workers poll during the search.
type TimeManager struct {
	start   time.Time
	soft    time.Duration
	hard    time.Duration
	budget  time.Duration
	limited bool

	best      board.Move
	stable    int
	lastScore int
	scored    bool
}

// NewTimeManager derives the budgets for side us. overhead is subtracted from
// every computed limit to cover communication latency.
func NewTimeManager(l Limits, us board.Color, overhead time.Duration, start time.Time) *TimeManager {
	tm := &TimeManager{start: start}
	if l.Infinite {
		return tm
	}

	switch rem, inc := l.Time[us], l.Inc[us]; {
	case l.MoveTime > 0:
		tm.soft = l.MoveTime - overhead
		tm.hard = tm.soft
	case rem > 0 && l.MovesToGo > 0:
		tm.soft = rem/time.Duration(l.MovesToGo) + inc/2
		tm.hard = min(rem/3, 3*tm.soft)
		tm.soft -= overhead
		tm.hard -= overhead
	case rem > 0:
		tm.soft = min(rem, rem/20+inc/2) - overhead
		tm.hard = rem/3 - overhead
	default:
		return tm
	}

	tm.limited = true
	tm.hard = max(tm.hard, minThink)
	tm.soft = clamp(tm.soft, minThink, tm.hard)
	tm.budget = tm.soft
	return tm
}

// Limited reports whether any clock limit applies.
func (tm *TimeManager) Limited() bool { return tm.limited }

// Elapsed returns the time since the search started.
func (tm *TimeManager) Elapsed() time.Duration { return time.Since(tm.start) }

// Soft returns the current soft budget after stability scaling.
func (tm *TimeManager) Soft() time.Duration { return tm.budget }

// Hard returns the hard deadline relative to the start.
func (tm *TimeManager) Hard() time.Duration { return tm.hard }

// HardExpired reports whether the search must stop now.
func (tm *TimeManager) HardExpired() bool {
	return tm.limited && tm.Elapsed() >= tm.hard
}

// Update folds one completed iteration into the budget: a stable best move
// shrinks it, a changed move or a falling score grows it, never past hard.
func (tm *TimeManager) Update(best board.Move, score int) {
	if best == tm.best {
		tm.stable++
	} else {
		tm.best = best
		tm.stable = 0
	}

	scale := stabilityScale[min(tm.stable, len(stabilityScale)-1)]
	if tm.scored {
		if drop := tm.lastScore - score; drop > 20 {
			scale *= 1 + float64(min(drop, 150))/150
		}
	}
	tm.lastScore, tm.scored = score, true

	if tm.limited {
		tm.budget = min(tm.hard, time.Duration(float64(tm.soft)*scale))
	}
}

// SoftExpired reports whether another iteration should not be started.
func (tm *TimeManager) SoftExpired() bool {
	return tm.limited && tm.Elapsed() >= tm.budget
}
