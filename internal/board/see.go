package board

// SEE returns the static exchange value of m on its destination square, in
// centipawns from the mover's point of view.
func (p *Position) SEE(m Move) int {
	if m.IsCastling() {
		return 0
	}
	from, to := m.From(), m.To()
	us := p.SideToMove

	var gain [40]int
	gain[0] = SEEValue[m.Captured()]
	attackerValue := SEEValue[m.Piece()]
	if m.IsPromotion() {
		gain[0] += SEEValue[m.Promotion()] - SEEValue[Pawn]
		attackerValue = SEEValue[m.Promotion()]
	}

	occ := p.AllOccupied &^ SquareBB(from)
	if m.IsEnPassant() {
		occ &^= SquareBB(epVictim(to, us))
	}
	diag := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop] | p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	orth := p.Pieces[White][Rook] | p.Pieces[Black][Rook] | p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	attackers := p.AttackersTo(to, occ) & occ

	side := us.Other()
	d := 0
	for {
		d++
		gain[d] = attackerValue - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}
		mine := attackers & p.Occupied[side]
		if mine == 0 {
			break
		}
		pt := Pawn
		for ; pt <= King; pt++ {
			if mine&p.Pieces[side][pt] != 0 {
				break
			}
		}
		if pt == King && attackers&p.Occupied[side.Other()] != 0 {
			break
		}
		sq := (mine & p.Pieces[side][pt]).LSB()
		occ &^= SquareBB(sq)
		attackers |= BishopAttacks(to, occ)&diag | RookAttacks(to, occ)&orth
		attackers &= occ
		attackerValue = SEEValue[pt]
		side = side.Other()
	}
	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}
