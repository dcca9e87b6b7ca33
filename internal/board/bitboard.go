package board

import "math/bits"

// Bitboard is a set of squares, bit n standing for Square(n).
type Bitboard uint64

const (
	FileA Bitboard = 0x0101010101010101
	FileH Bitboard = FileA << 7
	Rank1 Bitboard = 0xFF
	Rank2 Bitboard = Rank1 << 8
	Rank3 Bitboard = Rank1 << 16
	Rank6 Bitboard = Rank1 << 40
	Rank7 Bitboard = Rank1 << 48
	Rank8 Bitboard = Rank1 << 56
)

// FileMask and RankMask index the eight files and ranks.
var (
	FileMask [8]Bitboard
	RankMask [8]Bitboard
)

func init() {
	for i := 0; i < 8; i++ {
		FileMask[i] = FileA << i
		RankMask[i] = Rank1 << (8 * i)
	}
}

// SquareBB returns the singleton set of sq.
func SquareBB(sq Square) Bitboard { return 1 << sq }

// Has reports whether sq is in the set.
func (b Bitboard) Has(sq Square) bool { return b&(1<<sq) != 0 }

// PopCount returns the number of squares in the set.
func (b Bitboard) PopCount() int { return bits.OnesCount64(uint64(b)) }

// LSB returns the lowest square of the set, or NoSquare when empty.
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// MSB returns the highest square of the set, or NoSquare when empty.
func (b Bitboard) MSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(63 - bits.LeadingZeros64(uint64(b)))
}

// PopLSB removes and returns the lowest square.
func (b *Bitboard) PopLSB() Square {
	sq := Square(bits.TrailingZeros64(uint64(*b)))
	*b &= *b - 1
	return sq
}

// Several reports whether the set holds more than one square.
func (b Bitboard) Several() bool { return b&(b-1) != 0 }

func (b Bitboard) north() Bitboard { return b << 8 }
func (b Bitboard) south() Bitboard { return b >> 8 }
func (b Bitboard) east() Bitboard  { return (b &^ FileH) << 1 }
func (b Bitboard) west() Bitboard  { return (b &^ FileA) >> 1 }

// forward shifts one rank toward the opponent of c.
func (b Bitboard) forward(c Color) Bitboard {
	if c == White {
		return b.north()
	}
	return b.south()
}
