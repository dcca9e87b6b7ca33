package board

// Ray directions. The first four walk toward higher square indices.
const (
	dirN = iota
	dirE
	dirNE
	dirNW
	dirS
	dirW
	dirSW
	dirSE
)

var dirStep = [8][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}, {0, -1}, {-1, 0}, {-1, -1}, {1, -1}}

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard
	rays          [8][64]Bitboard
	betweenBB     [64][64]Bitboard
	lineBB        [64][64]Bitboard
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		f, r := sq.File(), sq.Rank()
		for _, d := range [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
			if onBoard(f+d[0], r+d[1]) {
				knightAttacks[sq] |= SquareBB(NewSquare(f+d[0], r+d[1]))
			}
		}
		for dir, step := range dirStep {
			if onBoard(f+step[0], r+step[1]) {
				kingAttacks[sq] |= SquareBB(NewSquare(f+step[0], r+step[1]))
			}
			for nf, nr := f+step[0], r+step[1]; onBoard(nf, nr); nf, nr = nf+step[0], nr+step[1] {
				rays[dir][sq] |= SquareBB(NewSquare(nf, nr))
			}
		}
		bb := SquareBB(sq)
		pawnAttacks[White][sq] = bb.north().east() | bb.north().west()
		pawnAttacks[Black][sq] = bb.south().east() | bb.south().west()
	}

	for sq := A1; sq <= H8; sq++ {
		for dir := 0; dir < 8; dir++ {
			opposite := (dir + 4) % 8
			line := rays[dir][sq] | rays[opposite][sq] | SquareBB(sq)
			ray := rays[dir][sq]
			for ray != 0 {
				t := ray.PopLSB()
				betweenBB[sq][t] = rays[dir][sq] &^ rays[dir][t] &^ SquareBB(t)
				lineBB[sq][t] = line
			}
		}
	}
}

func onBoard(f, r int) bool { return f >= 0 && f < 8 && r >= 0 && r < 8 }

func slide(sq Square, occupied Bitboard, dirs ...int) Bitboard {
	var attacks Bitboard
	for _, dir := range dirs {
		ray := rays[dir][sq]
		if blockers := ray & occupied; blockers != 0 {
			var b Square
			if dir < dirS {
				b = blockers.LSB()
			} else {
				b = blockers.MSB()
			}
			ray &^= rays[dir][b]
		}
		attacks |= ray
	}
	return attacks
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

// BishopAttacks returns diagonal attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, dirNE, dirNW, dirSW, dirSE)
}

// RookAttacks returns orthogonal attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, dirN, dirE, dirS, dirW)
}

// QueenAttacks is the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the squares strictly between two aligned squares.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool { return lineBB[a][b].Has(c) }

// AttackersTo returns pieces of both colors attacking sq under occupied.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	return p.AttackersByColor(sq, White, occupied) | p.AttackersByColor(sq, Black, occupied)
}

// AttackersByColor returns pieces of color c attacking sq under occupied.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	pc := &p.Pieces[c]
	return pawnAttacks[c.Other()][sq]&pc[Pawn] |
		knightAttacks[sq]&pc[Knight] |
		kingAttacks[sq]&pc[King] |
		BishopAttacks(sq, occupied)&(pc[Bishop]|pc[Queen]) |
		RookAttacks(sq, occupied)&(pc[Rook]|pc[Queen])
}

// IsSquareAttacked reports whether color by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.AttackersByColor(sq, by, p.AllOccupied) != 0
}
