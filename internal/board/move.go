package board

import "fmt"

// Move is a self-describing move:
//
//	bits  0-5   from square
//	bits  6-11  to square
//	bits 12-14  promotion piece type (0 when none; pawns never promote to Pawn)
//	bits 15-17  moving piece type
//	bits 18-20  captured piece type (NoPieceType when quiet)
//	bit  21     en passant
//	bit  22     castling
//
// The low 15 bits alone identify a move within a position; see Key.
type Move uint32

// NoMove is the zero move.
const NoMove Move = 0

const (
	flagEnPassant Move = 1 << 21
	flagCastling  Move = 1 << 22
)

func newMove(from, to Square, moved, captured PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(moved)<<15 | Move(captured)<<18
}

func (m Move) withPromotion(pt PieceType) Move { return m | Move(pt)<<12 }

// From returns the origin square.
func (m Move) From() Square { return Square(m & 63) }

// To returns the destination square.
func (m Move) To() Square { return Square(m >> 6 & 63) }

// Promotion returns the promoted-to piece type, or Pawn when none.
func (m Move) Promotion() PieceType { return PieceType(m >> 12 & 7) }

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool { return m.Promotion() != Pawn }

// Piece returns the moving piece type.
func (m Move) Piece() PieceType { return PieceType(m >> 15 & 7) }

// Captured returns the captured piece type, NoPieceType for non-captures.
func (m Move) Captured() PieceType { return PieceType(m >> 18 & 7) }

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool { return m.Captured() != NoPieceType }

// IsEnPassant reports an en-passant capture.
func (m Move) IsEnPassant() bool { return m&flagEnPassant != 0 }

// IsCastling reports a castling move, encoded as the king's two-square step.
func (m Move) IsCastling() bool { return m&flagCastling != 0 }

// IsQuiet reports a move that neither captures nor promotes.
func (m Move) IsQuiet() bool { return !m.IsCapture() && !m.IsPromotion() }

// Key returns the from/to/promotion identity of the move. Two moves with the
// same key in the same position are the same move.
func (m Move) Key() uint16 { return uint16(m & 0x7FFF) }

// String returns long algebraic (UCI) notation.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("pnbrqk"[m.Promotion()])
	}
	return s
}

// MoveList is a fixed-capacity move buffer that avoids heap allocation.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves held.
func (ml *MoveList) Len() int { return ml.count }

// Get returns the i-th move.
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

// Swap exchanges two entries.
func (ml *MoveList) Swap(i, j int) { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }

// Clear empties the list.
func (ml *MoveList) Clear() { ml.count = 0 }

// Slice exposes the held moves.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// Find returns the move whose Key equals key, reporting whether it exists.
func (ml *MoveList) Find(key uint16) (Move, bool) {
	for _, m := range ml.moves[:ml.count] {
		if m.Key() == key {
			return m, true
		}
	}
	return NoMove, false
}

// ParseMove resolves a UCI move string against the legal moves of p.
func (p *Position) ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move %q", s)
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("illegal move %q", s)
}
