package eval

import "github.com/hailam/chesscore/internal/board"

// Piece-square tables are laid out as seen from White with the eighth rank
// first; White looks up sq^56, Black looks up sq.
var (
	mgTable = [6][64]int{
		{ // pawn
			0, 0, 0, 0, 0, 0, 0, 0,
			50, 50, 50, 50, 50, 50, 50, 50,
			10, 10, 20, 30, 30, 20, 10, 10,
			5, 5, 10, 25, 25, 10, 5, 5,
			0, 0, 0, 20, 20, 0, 0, 0,
			5, -5, -10, 0, 0, -10, -5, 5,
			5, 10, 10, -20, -20, 10, 10, 5,
			0, 0, 0, 0, 0, 0, 0, 0,
		},
		{ // knight
			-50, -40, -30, -30, -30, -30, -40, -50,
			-40, -20, 0, 0, 0, 0, -20, -40,
			-30, 0, 10, 15, 15, 10, 0, -30,
			-30, 5, 15, 20, 20, 15, 5, -30,
			-30, 0, 15, 20, 20, 15, 0, -30,
			-30, 5, 10, 15, 15, 10, 5, -30,
			-40, -20, 0, 5, 5, 0, -20, -40,
			-50, -40, -30, -30, -30, -30, -40, -50,
		},
		{ // bishop
			-20, -10, -10, -10, -10, -10, -10, -20,
			-10, 0, 0, 0, 0, 0, 0, -10,
			-10, 0, 5, 10, 10, 5, 0, -10,
			-10, 5, 5, 10, 10, 5, 5, -10,
			-10, 0, 10, 10, 10, 10, 0, -10,
			-10, 10, 10, 10, 10, 10, 10, -10,
			-10, 5, 0, 0, 0, 0, 5, -10,
			-20, -10, -10, -10, -10, -10, -10, -20,
		},
		{ // rook
			0, 0, 0, 0, 0, 0, 0, 0,
			5, 10, 10, 10, 10, 10, 10, 5,
			-5, 0, 0, 0, 0, 0, 0, -5,
			-5, 0, 0, 0, 0, 0, 0, -5,
			-5, 0, 0, 0, 0, 0, 0, -5,
			-5, 0, 0, 0, 0, 0, 0, -5,
			-5, 0, 0, 0, 0, 0, 0, -5,
			0, 0, 0, 5, 5, 0, 0, 0,
		},
		{ // queen
			-20, -10, -10, -5, -5, -10, -10, -20,
			-10, 0, 0, 0, 0, 0, 0, -10,
			-10, 0, 5, 5, 5, 5, 0, -10,
			-5, 0, 5, 5, 5, 5, 0, -5,
			0, 0, 5, 5, 5, 5, 0, -5,
			-10, 5, 5, 5, 5, 5, 0, -10,
			-10, 0, 5, 0, 0, 0, 0, -10,
			-20, -10, -10, -5, -5, -10, -10, -20,
		},
		{ // king
			-30, -40, -40, -50, -50, -40, -40, -30,
			-30, -40, -40, -50, -50, -40, -40, -30,
			-30, -40, -40, -50, -50, -40, -40, -30,
			-30, -40, -40, -50, -50, -40, -40, -30,
			-20, -30, -30, -40, -40, -30, -30, -20,
			-10, -20, -20, -20, -20, -20, -20, -10,
			20, 20, 0, 0, 0, 0, 20, 20,
			20, 30, 10, 0, 0, 10, 30, 20,
		},
	}

	// Endgame pawns care about advancement only; the king centralises.
	egPawn = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		80, 80, 80, 80, 80, 80, 80, 80,
		50, 50, 50, 50, 50, 50, 50, 50,
		30, 30, 30, 30, 30, 30, 30, 30,
		20, 20, 20, 20, 20, 20, 20, 20,
		10, 10, 10, 10, 10, 10, 10, 10,
		5, 5, 5, 5, 5, 5, 5, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	egKing = [64]int{
		-50, -40, -30, -20, -20, -30, -40, -50,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}

	egTable [6][64]int
)

func init() {
	egTable = mgTable
	egTable[board.Pawn] = egPawn
	egTable[board.King] = egKing
}

const (
	tempo            = 10
	bishopPairMg     = 25
	bishopPairEg     = 50
	rule50Dampening  = 199
	pawnTableEntries = 1 << 14
)

// psqt is the white-relative material and placement sum.
type psqt struct {
	mg, eg, phase int
}

func (s *psqt) add(c board.Color, pt board.PieceType, sq board.Square) {
	idx := sq
	if c == board.White {
		idx = sq.Mirror()
	}
	mg := pieceValue[pt] + mgTable[pt][idx]
	eg := pieceValue[pt] + egTable[pt][idx]
	if c == board.Black {
		mg, eg = -mg, -eg
	}
	s.mg += mg
	s.eg += eg
	s.phase += phaseWeight[pt]
}

func (s *psqt) remove(c board.Color, pt board.PieceType, sq board.Square) {
	var t psqt
	t.add(c, pt, sq)
	s.mg -= t.mg
	s.eg -= t.eg
	s.phase -= t.phase
}

// Classical is a tapered material and piece-square evaluator with a cached
// pawn-structure term.
type Classical struct {
	stack [maxStack]psqt
	top   int
	pawns *PawnTable
}

// NewClassical returns a classical evaluator with its own pawn table.
func NewClassical() *Classical {
	return &Classical{pawns: NewPawnTable(pawnTableEntries)}
}

// ClassicalFactory builds independent classical evaluators.
func ClassicalFactory() Factory {
	return func() Evaluator { return NewClassical() }
}

func fullPSQT(pos *board.Position) psqt {
	var s psqt
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				s.add(c, pt, bb.PopLSB())
			}
		}
	}
	return s
}

func (e *Classical) Reset(pos *board.Position) {
	e.top = 0
	e.stack[0] = fullPSQT(pos)
}

func (e *Classical) Push(pos *board.Position, m board.Move) {
	s := e.stack[e.top]
	us := pos.SideToMove
	from, to := m.From(), m.To()

	s.remove(us, m.Piece(), from)
	if m.IsPromotion() {
		s.add(us, m.Promotion(), to)
	} else {
		s.add(us, m.Piece(), to)
	}
	if m.IsCapture() {
		victim := to
		if m.IsEnPassant() {
			victim = board.NewSquare(to.File(), from.Rank())
		}
		s.remove(us.Other(), m.Captured(), victim)
	}
	if m.IsCastling() {
		rf, rt := rookShift(to)
		s.remove(us, board.Rook, rf)
		s.add(us, board.Rook, rt)
	}

	e.top++
	e.stack[e.top] = s
}

func (e *Classical) PushNull() {
	e.stack[e.top+1] = e.stack[e.top]
	e.top++
}

func (e *Classical) Pop() {
	if e.top > 0 {
		e.top--
	}
}

func (e *Classical) Evaluate(pos *board.Position) int {
	s := e.stack[e.top]
	mg, eg := s.mg, s.eg

	pmg, peg := e.pawns.Evaluate(pos)
	mg += pmg
	eg += peg

	for c, sign := board.White, 1; c <= board.Black; c, sign = c+1, -1 {
		if pos.Pieces[c][board.Bishop].Several() {
			mg += sign * bishopPairMg
			eg += sign * bishopPairEg
		}
	}

	phase := min(s.phase, maxPhase)
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase
	if pos.SideToMove == board.Black {
		score = -score
	}
	score += tempo
	return score - score*pos.HalfMoveClock/rule50Dampening
}

func rookShift(kingTo board.Square) (from, to board.Square) {
	switch kingTo {
	case board.G1:
		return board.H1, board.F1
	case board.C1:
		return board.A1, board.D1
	case board.G8:
		return board.H8, board.F8
	default:
		return board.A8, board.D8
	}
}
