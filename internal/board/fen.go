package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a position from Forsyth-Edwards notation. The clock fields
// are optional.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN %q: need at least 4 fields, got %d", fen, len(parts))
	}

	p := &Position{EnPassant: NoSquare, FullMoveNumber: 1}
	for i := range p.squares {
		p.squares[i] = NoPiece
	}
	if err := p.parsePlacement(parts[0]); err != nil {
		return nil, err
	}
	for c := White; c <= Black; c++ {
		if p.Pieces[c][King].PopCount() != 1 {
			return nil, fmt.Errorf("invalid FEN %q: %s must have exactly one king", fen, c)
		}
	}

	switch parts[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move %q", parts[1])
	}

	if parts[2] != "-" {
		for _, ch := range parts[2] {
			i := strings.IndexRune("KQkq", ch)
			if i < 0 {
				return nil, fmt.Errorf("invalid castling character %q", ch)
			}
			p.CastlingRights |= 1 << i
		}
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %w", err)
		}
		// Keep the square only when a capture is possible so that equal
		// positions share a key.
		if pawnAttacks[p.SideToMove.Other()][sq]&p.Pieces[p.SideToMove][Pawn] != 0 {
			p.EnPassant = sq
		}
	}

	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid half-move clock %q", parts[4])
		}
		p.HalfMoveClock = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid full-move number %q", parts[5])
		}
		p.FullMoveNumber = n
	}

	if p.AttackersByColor(p.KingSquare[p.SideToMove.Other()], p.SideToMove, p.AllOccupied) != 0 {
		return nil, fmt.Errorf("invalid FEN %q: side not to move is in check", fen)
	}
	p.Hash, p.PawnKey = p.computeKeys()
	p.UpdateCheckers()
	return p, nil
}

func (p *Position) parsePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank, file := 7-i, 0
		for _, ch := range row {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := pieceFromChar(byte(ch))
			if !ok {
				return fmt.Errorf("invalid piece character %q", ch)
			}
			sq := NewSquare(file, rank)
			if pc.Type() == Pawn && (rank == 0 || rank == 7) {
				return fmt.Errorf("pawn on back rank at %s", sq)
			}
			p.place(sq, pc.Color(), pc.Type())
			file++
		}
		if file != 8 {
			return fmt.Errorf("rank %d has %d squares", rank+1, file)
		}
	}
	return nil
}

// ToFEN renders the position in Forsyth-Edwards notation.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.squares[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.CastlingRights, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}
