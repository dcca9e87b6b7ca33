package board

type genKind uint8

const (
	genAll genKind = iota
	genNoisy
)

// generator holds the per-call legality masks.
type generator struct {
	p         *Position
	ml        *MoveList
	us, them  Color
	ksq       Square
	pinned    Bitboard
	checkMask Bitboard
	targets   Bitboard
}

// GenerateLegalMoves fills ml with every legal move.
func (p *Position) GenerateLegalMoves(ml *MoveList) {
	ml.Clear()
	p.generate(ml, genAll)
}

// GenerateCaptures fills ml with legal captures and promotions.
func (p *Position) GenerateCaptures(ml *MoveList) {
	ml.Clear()
	p.generate(ml, genNoisy)
}

// GenerateQuietChecks fills ml with legal quiet moves that give check.
func (p *Position) GenerateQuietChecks(ml *MoveList) {
	var all MoveList
	p.GenerateLegalMoves(&all)
	ml.Clear()
	for _, m := range all.Slice() {
		if m.IsQuiet() && p.GivesCheck(m) {
			ml.Add(m)
		}
	}
}

// GivesCheck reports whether the legal move m checks the opponent.
func (p *Position) GivesCheck(m Move) bool {
	undo := p.MakeMove(m)
	check := p.Checkers != 0
	p.UnmakeMove(m, undo)
	return check
}

// HasLegalMove reports whether the side to move can move at all.
func (p *Position) HasLegalMove() bool {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	return ml.Len() > 0
}

func (p *Position) pinnedPieces(us Color) Bitboard {
	them := us.Other()
	ksq := p.KingSquare[us]
	snipers := RookAttacks(ksq, 0)&(p.Pieces[them][Rook]|p.Pieces[them][Queen]) |
		BishopAttacks(ksq, 0)&(p.Pieces[them][Bishop]|p.Pieces[them][Queen])
	var pinned Bitboard
	for snipers != 0 {
		s := snipers.PopLSB()
		blockers := Between(ksq, s) & p.AllOccupied
		if blockers != 0 && !blockers.Several() && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

func (p *Position) generate(ml *MoveList, kind genKind) {
	us := p.SideToMove
	g := generator{p: p, ml: ml, us: us, them: us.Other(), ksq: p.KingSquare[us]}

	g.targets = ^p.Occupied[us]
	if kind == genNoisy {
		g.targets = p.Occupied[g.them]
	}

	// King moves are checked directly against the attack map without the king.
	occNoKing := p.AllOccupied &^ SquareBB(g.ksq)
	for bb := kingAttacks[g.ksq] & g.targets; bb != 0; {
		to := bb.PopLSB()
		if p.AttackersByColor(to, g.them, occNoKing) == 0 {
			g.add(g.ksq, to, King)
		}
	}
	if p.Checkers.Several() {
		return
	}

	g.checkMask = ^Bitboard(0)
	if p.Checkers != 0 {
		c := p.Checkers.LSB()
		g.checkMask = Between(g.ksq, c) | SquareBB(c)
	}
	g.pinned = p.pinnedPieces(us)

	g.pawns(kind)
	for bb := p.Pieces[us][Knight] &^ g.pinned; bb != 0; {
		from := bb.PopLSB()
		g.piece(from, knightAttacks[from], Knight)
	}
	for bb := p.Pieces[us][Bishop]; bb != 0; {
		from := bb.PopLSB()
		g.piece(from, BishopAttacks(from, p.AllOccupied), Bishop)
	}
	for bb := p.Pieces[us][Rook]; bb != 0; {
		from := bb.PopLSB()
		g.piece(from, RookAttacks(from, p.AllOccupied), Rook)
	}
	for bb := p.Pieces[us][Queen]; bb != 0; {
		from := bb.PopLSB()
		g.piece(from, QueenAttacks(from, p.AllOccupied), Queen)
	}

	if kind == genAll && p.Checkers == 0 {
		g.castling()
	}
}

func (g *generator) legal(from, to Square) bool {
	return g.checkMask.Has(to) && (!g.pinned.Has(from) || lineBB[from][to].Has(g.ksq))
}

func (g *generator) add(from, to Square, pt PieceType) {
	g.ml.Add(newMove(from, to, pt, g.p.squares[to].Type()))
}

func (g *generator) piece(from Square, attacks Bitboard, pt PieceType) {
	for bb := attacks & g.targets; bb != 0; {
		to := bb.PopLSB()
		if g.legal(from, to) {
			g.add(from, to, pt)
		}
	}
}

func (g *generator) promotions(from, to Square) {
	base := newMove(from, to, Pawn, g.p.squares[to].Type())
	for _, pt := range [4]PieceType{Queen, Rook, Bishop, Knight} {
		g.ml.Add(base.withPromotion(pt))
	}
}

func (g *generator) pawns(kind genKind) {
	p := g.p
	occ := p.AllOccupied
	enemies := p.Occupied[g.them]
	promoRank, startRank := Rank8, Rank2
	if g.us == Black {
		promoRank, startRank = Rank1, Rank7
	}

	for bb := p.Pieces[g.us][Pawn]; bb != 0; {
		from := bb.PopLSB()
		fromBB := SquareBB(from)

		if one := fromBB.forward(g.us) &^ occ; one != 0 {
			to := one.LSB()
			switch {
			case one&promoRank != 0:
				if g.legal(from, to) {
					g.promotions(from, to)
				}
			case kind == genAll:
				if g.legal(from, to) {
					g.add(from, to, Pawn)
				}
				if fromBB&startRank != 0 {
					if two := one.forward(g.us) &^ occ; two != 0 && g.legal(from, two.LSB()) {
						g.add(from, two.LSB(), Pawn)
					}
				}
			}
		}

		for caps := pawnAttacks[g.us][from] & enemies; caps != 0; {
			to := caps.PopLSB()
			if !g.legal(from, to) {
				continue
			}
			if SquareBB(to)&promoRank != 0 {
				g.promotions(from, to)
			} else {
				g.add(from, to, Pawn)
			}
		}

		if ep := p.EnPassant; ep != NoSquare && pawnAttacks[g.us][from].Has(ep) {
			g.enPassant(from, ep)
		}
	}
}

// enPassant verifies the capture by replaying it on the occupancy, which also
// covers the rank pin where both pawns leave the king's rank.
func (g *generator) enPassant(from, to Square) {
	p := g.p
	victim := epVictim(to, g.us)
	occ := p.AllOccupied&^SquareBB(from)&^SquareBB(victim) | SquareBB(to)
	if p.AttackersByColor(g.ksq, g.them, occ)&^SquareBB(victim) != 0 {
		return
	}
	g.ml.Add(newMove(from, to, Pawn, Pawn) | flagEnPassant)
}

func (g *generator) castling() {
	p := g.p
	type option struct {
		right          CastlingRights
		rook, kingTo   Square
		empty, passing Bitboard
	}
	var opts [2]option
	if g.us == White {
		opts = [2]option{
			{WhiteKingSide, H1, G1, SquareBB(F1) | SquareBB(G1), SquareBB(F1) | SquareBB(G1)},
			{WhiteQueenSide, A1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(C1) | SquareBB(D1)},
		}
	} else {
		opts = [2]option{
			{BlackKingSide, H8, G8, SquareBB(F8) | SquareBB(G8), SquareBB(F8) | SquareBB(G8)},
			{BlackQueenSide, A8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(C8) | SquareBB(D8)},
		}
	}
	for _, o := range opts {
		if p.CastlingRights&o.right == 0 || !p.Pieces[g.us][Rook].Has(o.rook) || p.AllOccupied&o.empty != 0 {
			continue
		}
		safe := true
		for pass := o.passing; pass != 0; {
			if p.IsSquareAttacked(pass.PopLSB(), g.them) {
				safe = false
				break
			}
		}
		if safe {
			g.ml.Add(newMove(g.ksq, o.kingTo, King, NoPieceType) | flagCastling)
		}
	}
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool { return p.InCheck() && !p.HasLegalMove() }

// IsStalemate reports whether the side to move has no move but is not in check.
func (p *Position) IsStalemate() bool { return !p.InCheck() && !p.HasLegalMove() }
