package engine

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/chesscore/internal/board"
)

// Verify checks m against an independent move generator and returns an
// ErrInvariantViolation if that generator does not list it for fen.
func Verify(fen string, m board.Move) error {
	b := dragontoothmg.ParseFen(fen)
	want := m.String()
	for _, lm := range b.GenerateLegalMoves() {
		if lm.String() == want {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not legal in %q", ErrInvariantViolation, want, fen)
}
