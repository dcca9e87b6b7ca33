package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// Divide returns the perft count below each root move.
func Divide(p *Position, depth int) map[Move]uint64 {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	out := make(map[Move]uint64, ml.Len())
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		out[m] = Perft(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return out
}
