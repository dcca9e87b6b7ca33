package board

var (
	zobristPiece     [2][6][64]uint64
	zobristEnPassant [8]uint64
	zobristCastling  [16]uint64
	zobristSide      uint64
)

func init() {
	// splitmix64 with a fixed seed keeps keys stable across runs, which the
	// bench signature relies on.
	state := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ z>>30) * 0xBF58476D1CE4E5B9
		z = (z ^ z>>27) * 0x94D049BB133111EB
		return z ^ z>>31
	}
	for c := range zobristPiece {
		for pt := range zobristPiece[c] {
			for sq := range zobristPiece[c][pt] {
				zobristPiece[c][pt][sq] = next()
			}
		}
	}
	for i := range zobristEnPassant {
		zobristEnPassant[i] = next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = next()
	}
	zobristSide = next()
}

func (p *Position) computeKeys() (hash, pawnKey uint64) {
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces[c][pt]; bb != 0; {
				k := zobristPiece[c][pt][bb.PopLSB()]
				hash ^= k
				if pt == Pawn {
					pawnKey ^= k
				}
			}
		}
	}
	if p.SideToMove == Black {
		hash ^= zobristSide
	}
	hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	return hash, pawnKey
}
