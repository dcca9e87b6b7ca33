package board

import (
	"testing"

	"github.com/matryer/is"
)

func TestFENRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	} {
		pos, err := ParseFEN(fen)
		is.NoErr(err)
		is.Equal(pos.ToFEN(), fen)
	}
}

func TestParseFENErrors(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		"",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	} {
		_, err := ParseFEN(fen)
		is.True(err != nil)
	}
}

// An en-passant square no pawn can use is dropped so transpositions share a key.
func TestEnPassantCanonical(t *testing.T) {
	is := is.New(t)
	pos := NewPosition()
	m, err := pos.ParseMove("e2e4")
	is.NoErr(err)
	pos.MakeMove(m)
	is.Equal(pos.EnPassant, NoSquare)

	other, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	is.NoErr(err)
	is.Equal(other.Hash, pos.Hash)
}

func TestCheckmateAndStalemate(t *testing.T) {
	is := is.New(t)

	mated, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	is.NoErr(err)
	is.True(mated.InCheck())
	is.True(mated.IsCheckmate())

	escape, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	is.NoErr(err)
	is.True(escape.InCheck())
	is.True(!escape.IsCheckmate())

	stale, err := ParseFEN("7k/5Q2/8/8/8/8/8/K7 b - - 0 1")
	is.NoErr(err)
	is.True(stale.IsStalemate())
}

func TestInsufficientMaterial(t *testing.T) {
	is := is.New(t)
	for fen, want := range map[string]bool{
		"8/8/8/4k3/8/8/8/4K3 w - - 0 1":   true,
		"8/8/8/4k3/8/8/8/4KN2 w - - 0 1":  true,
		"8/8/8/4k3/8/8/8/3BKN2 w - - 0 1": false,
		"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1": false,
	} {
		pos, err := ParseFEN(fen)
		is.NoErr(err)
		is.Equal(pos.IsInsufficientMaterial(), want)
	}
}

func TestSEE(t *testing.T) {
	is := is.New(t)
	tests := []struct {
		fen  string
		move string
		want int
	}{
		// Undefended knight.
		{"4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1", "e4d5", 320},
		// Pawn defended by pawn, taken by a knight.
		{"4k3/8/2p5/3p4/8/4N3/8/4K3 w - - 0 1", "e3d5", 100 - 320},
		// Doubled rooks against doubled rooks: the defender has the last capture.
		{"3rk3/3r4/8/3p4/8/8/3R4/3RK3 w - - 0 1", "d2d5", 100 - 500},
		{"4k3/8/8/8/8/8/8/R3K3 w Q - 0 1", "e1c1", 0},
	}
	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		is.NoErr(err)
		m, err := pos.ParseMove(tc.move)
		is.NoErr(err)
		is.Equal(pos.SEE(m), tc.want)
	}
}

func TestParseMove(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	is.NoErr(err)
	m, err := pos.ParseMove("b7b8n")
	is.NoErr(err)
	is.Equal(m.Promotion(), Knight)
	is.Equal(m.String(), "b7b8n")
	_, err = pos.ParseMove("e1e3")
	is.True(err != nil)
}
