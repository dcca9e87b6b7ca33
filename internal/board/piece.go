package board

// Color is the side owning a piece or having the move.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType is a colorless piece kind.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

// SEEValue holds the exchange values used by static exchange evaluation
// and capture ordering, indexed by PieceType.
var SEEValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// Piece packs a color and a piece type as type | color<<3.
type Piece uint8

// NoPiece marks an empty square in the mailbox.
const NoPiece Piece = 0xFF

// NewPiece combines a type and a color.
func NewPiece(pt PieceType, c Color) Piece {
	return Piece(pt) | Piece(c)<<3
}

// Type returns the piece kind.
func (p Piece) Type() PieceType {
	if p == NoPiece {
		return NoPieceType
	}
	return PieceType(p & 7)
}

// Color returns the owning side.
func (p Piece) Color() Color { return Color(p >> 3 & 1) }

const pieceChars = "PNBRQK"

func (p Piece) String() string {
	if p == NoPiece {
		return "."
	}
	ch := pieceChars[p.Type()]
	if p.Color() == Black {
		ch += 'a' - 'A'
	}
	return string(ch)
}

// pieceFromChar converts a FEN letter to a piece, reporting false when the
// letter is not a piece.
func pieceFromChar(ch byte) (Piece, bool) {
	c := White
	if ch >= 'a' && ch <= 'z' {
		c = Black
		ch -= 'a' - 'A'
	}
	for pt := Pawn; pt <= King; pt++ {
		if pieceChars[pt] == ch {
			return NewPiece(pt, c), true
		}
	}
	return NoPiece, false
}
