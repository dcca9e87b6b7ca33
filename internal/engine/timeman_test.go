package engine

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hailam/chesscore/internal/board"
)

func TestTimeManagerBudgets(t *testing.T) {
	sec := time.Second
	tests := []struct {
		name       string
		limits     Limits
		overhead   time.Duration
		soft, hard time.Duration
		limited    bool
	}{
		{"movetime", Limits{MoveTime: sec}, 10 * time.Millisecond, 990 * time.Millisecond, 990 * time.Millisecond, true},
		{"increment", Limits{Time: [2]time.Duration{60 * sec, 5 * sec}, Inc: [2]time.Duration{sec, 0}}, 0, 3500 * time.Millisecond, 20 * sec, true},
		{"movestogo", Limits{Time: [2]time.Duration{60 * sec, 60 * sec}, MovesToGo: 10}, 0, 6 * sec, 18 * sec, true},
		{"tiny", Limits{MoveTime: time.Millisecond}, 10 * time.Millisecond, time.Millisecond, time.Millisecond, true},
		{"infinite", Limits{MoveTime: sec, Infinite: true}, 0, 0, 0, false},
		{"depth only", Limits{Depth: 8}, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTimeManager(tt.limits, board.White, tt.overhead, time.Now())
			if tm.Limited() != tt.limited {
				t.Fatalf("Limited() = %v, want %v", tm.Limited(), tt.limited)
			}
			if tm.Soft() != tt.soft || tm.Hard() != tt.hard {
				t.Errorf("soft/hard = %v/%v, want %v/%v", tm.Soft(), tm.Hard(), tt.soft, tt.hard)
			}
		})
	}
}

func TestTimeManagerUsesSideToMove(t *testing.T) {
	is := is.New(t)
	l := Limits{Time: [2]time.Duration{time.Minute, 2 * time.Second}}
	tm := NewTimeManager(l, board.Black, 0, time.Now())
	is.Equal(tm.Soft(), 100*time.Millisecond)
}

func TestTimeManagerStability(t *testing.T) {
	is := is.New(t)
	l := Limits{Time: [2]time.Duration{100 * time.Second}}
	tm := NewTimeManager(l, board.White, 0, time.Now())
	base := tm.Soft()

	m1, err := board.NewPosition().ParseMove("e2e4")
	is.NoErr(err)
	m2, err := board.NewPosition().ParseMove("d2d4")
	is.NoErr(err)

	tm.Update(m1, 20)
	is.True(tm.Soft() > base) // fresh best move

	for range 8 {
		tm.Update(m1, 20)
	}
	is.True(tm.Soft() < base) // stable

	tm.Update(m2, -100)
	is.True(tm.Soft() > base)
	is.True(tm.Soft() <= tm.Hard())
}

func TestTimeManagerExpiry(t *testing.T) {
	is := is.New(t)
	tm := NewTimeManager(Limits{MoveTime: 5 * time.Millisecond}, board.White, 0, time.Now().Add(-time.Second))
	is.True(tm.HardExpired())
	is.True(tm.SoftExpired())

	tm = NewTimeManager(Limits{}, board.White, 0, time.Now().Add(-time.Hour))
	is.True(!tm.HardExpired())
}
