package board

import (
	"sort"
	"testing"

	"github.com/notnil/chess"
)

// TestLegalMovesCrossCheck compares the legal move sets against an
// independent implementation, one ply deep from each position.
func TestLegalMovesCrossCheck(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		compareMoves(t, pos, fen)

		var ml MoveList
		pos.GenerateLegalMoves(&ml)
		for _, m := range ml.Slice() {
			undo := pos.MakeMove(m)
			compareMoves(t, pos, pos.ToFEN())
			pos.UnmakeMove(m, undo)
		}
	}
}

func compareMoves(t *testing.T, pos *Position, fen string) {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("reference FEN(%q): %v", fen, err)
	}
	var want []string
	for _, m := range chess.NewGame(opt).ValidMoves() {
		want = append(want, m.String())
	}

	var ml MoveList
	pos.GenerateLegalMoves(&ml)
	var got []string
	for _, m := range ml.Slice() {
		got = append(got, m.String())
	}

	sort.Strings(want)
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("%s: %d moves, reference has %d\n got  %v\n want %v", fen, len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s: move %q, reference %q", fen, got[i], want[i])
		}
	}
}
