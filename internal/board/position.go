package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a four-bit set of the remaining castling options.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

func (cr CastlingRights) String() string {
	if cr == 0 {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// castlingKeep[sq] masks the rights that survive a move touching sq.
var castlingKeep [64]CastlingRights

func init() {
	for i := range castlingKeep {
		castlingKeep[i] = 15
	}
	castlingKeep[A1] &^= WhiteQueenSide
	castlingKeep[H1] &^= WhiteKingSide
	castlingKeep[E1] &^= WhiteKingSide | WhiteQueenSide
	castlingKeep[A8] &^= BlackQueenSide
	castlingKeep[H8] &^= BlackKingSide
	castlingKeep[E8] &^= BlackKingSide | BlackQueenSide
}

// Position is a mutable chess position. It is owned by a single goroutine and
// changed only through MakeMove/UnmakeMove and their null-move counterparts.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard
	squares     [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	// Hash is the zobrist key of the whole position, PawnKey of pawns only.
	Hash    uint64
	PawnKey uint64

	KingSquare [2]Square
	Checkers   Bitboard
}

// UndoInfo carries the irreversible state MakeMove overwrote.
type UndoInfo struct {
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// Copy returns an independent copy of p.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece { return p.squares[sq] }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

// HasNonPawnMaterial reports whether the side to move owns a piece other than
// king and pawns.
func (p *Position) HasNonPawnMaterial() bool {
	pc := &p.Pieces[p.SideToMove]
	return pc[Knight]|pc[Bishop]|pc[Rook]|pc[Queen] != 0
}

// UpdateCheckers recomputes the pieces giving check to the side to move.
func (p *Position) UpdateCheckers() {
	us := p.SideToMove
	p.Checkers = p.AttackersByColor(p.KingSquare[us], us.Other(), p.AllOccupied)
}

func (p *Position) place(sq Square, c Color, pt PieceType) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.squares[sq] = NewPiece(pt, c)
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) lift(sq Square, c Color, pt PieceType) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.squares[sq] = NoPiece
}

func (p *Position) hashPiece(sq Square, c Color, pt PieceType) {
	k := zobristPiece[c][pt][sq]
	p.Hash ^= k
	if pt == Pawn {
		p.PawnKey ^= k
	}
}

func castlingRook(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

func epVictim(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// MakeMove plays a legal move and returns what UnmakeMove needs to revert it.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
	}
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to, pt := m.From(), m.To(), m.Piece()

	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++

	if m.IsCapture() {
		victim := to
		if m.IsEnPassant() {
			victim = epVictim(to, us)
		}
		p.lift(victim, them, m.Captured())
		p.hashPiece(victim, them, m.Captured())
		p.HalfMoveClock = 0
	}

	p.lift(from, us, pt)
	p.hashPiece(from, us, pt)
	landed := pt
	if m.IsPromotion() {
		landed = m.Promotion()
	}
	p.place(to, us, landed)
	p.hashPiece(to, us, landed)

	if m.IsCastling() {
		rf, rt := castlingRook(to)
		p.lift(rf, us, Rook)
		p.place(rt, us, Rook)
		p.hashPiece(rf, us, Rook)
		p.hashPiece(rt, us, Rook)
	}

	if pt == Pawn {
		p.HalfMoveClock = 0
		if d := int(to) - int(from); d == 16 || d == -16 {
			ep := Square((int(from) + int(to)) / 2)
			if pawnAttacks[us][ep]&p.Pieces[them][Pawn] != 0 {
				p.EnPassant = ep
				p.Hash ^= zobristEnPassant[ep.File()]
			}
		}
	}

	p.CastlingRights &= castlingKeep[from] & castlingKeep[to]
	p.Hash ^= zobristCastling[p.CastlingRights]

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash ^= zobristSide
	p.UpdateCheckers()
	return undo
}

// UnmakeMove reverts m, which must be the last move made.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	them := p.SideToMove
	us := them.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}
	from, to := m.From(), m.To()

	if m.IsCastling() {
		rf, rt := castlingRook(to)
		p.lift(rt, us, Rook)
		p.place(rf, us, Rook)
	}
	landed := m.Piece()
	if m.IsPromotion() {
		landed = m.Promotion()
	}
	p.lift(to, us, landed)
	p.place(from, us, m.Piece())
	if m.IsCapture() {
		victim := to
		if m.IsEnPassant() {
			victim = epVictim(to, us)
		}
		p.place(victim, them, m.Captured())
	}

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.Checkers = undo.Checkers
}

// NullUndo restores the state a null move changed.
type NullUndo struct {
	EnPassant Square
	Hash      uint64
	Checkers  Bitboard
	Clock     int
}

// MakeNullMove passes the turn. It must not be called while in check.
func (p *Position) MakeNullMove() NullUndo {
	undo := NullUndo{EnPassant: p.EnPassant, Hash: p.Hash, Checkers: p.Checkers, Clock: p.HalfMoveClock}
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSide
	p.UpdateCheckers()
	return undo
}

// UnmakeNullMove reverts MakeNullMove.
func (p *Position) UnmakeNullMove(undo NullUndo) {
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = undo.EnPassant
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.HalfMoveClock = undo.Clock
}

// IsInsufficientMaterial reports bare kings or a lone minor piece.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.Pieces[White], &p.Pieces[Black]
	if w[Pawn]|b[Pawn]|w[Rook]|b[Rook]|w[Queen]|b[Queen] != 0 {
		return false
	}
	minors := (w[Knight] | w[Bishop] | b[Knight] | b[Bishop]).PopCount()
	return minors <= 1
}

func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(" " + p.squares[NewSquare(file, rank)].String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	fmt.Fprintf(&sb, "fen: %s\nkey: %016x\n", p.ToFEN(), p.Hash)
	return sb.String()
}
