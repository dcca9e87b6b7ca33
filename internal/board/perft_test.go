package board

import "testing"

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		nodes []uint64
	}{
		{"start", StartFEN, []uint64{20, 400, 8902, 197281}},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []uint64{48, 2039, 97862}},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []uint64{14, 191, 2812, 43238}},
		{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467}},
		{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			for i, want := range tc.nodes {
				if got := Perft(pos, i+1); got != want {
					t.Errorf("perft(%d) = %d, want %d", i+1, got, want)
				}
			}
			if got := pos.ToFEN(); tc.fen == StartFEN && got != StartFEN {
				t.Errorf("position not restored: %s", got)
			}
		})
	}
}

// The en-passant capture would expose the black king on the fourth rank.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	var ml MoveList
	pos.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		if m.IsEnPassant() {
			t.Errorf("illegal en passant generated: %s", m)
		}
	}
	if got := Perft(pos, 1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
	if got := Perft(pos, 2); got != 94 {
		t.Errorf("perft(2) = %d, want 94", got)
	}
}

func TestMakeUnmakeRestoresKeys(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	var ml MoveList
	pos.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		before := *pos
		undo := pos.MakeMove(m)
		hash, pawnKey := pos.computeKeys()
		if hash != pos.Hash || pawnKey != pos.PawnKey {
			t.Errorf("%s: incremental keys diverge from recomputed keys", m)
		}
		pos.UnmakeMove(m, undo)
		if *pos != before {
			t.Errorf("%s: unmake did not restore the position", m)
		}
	}
}

func TestNullMove(t *testing.T) {
	pos := NewPosition()
	before := *pos
	undo := pos.MakeNullMove()
	if pos.SideToMove != Black || pos.Hash == before.Hash {
		t.Fatalf("null move did not pass the turn")
	}
	if h, _ := pos.computeKeys(); h != pos.Hash {
		t.Errorf("null move key mismatch")
	}
	pos.UnmakeNullMove(undo)
	if *pos != before {
		t.Errorf("unmake null move did not restore the position")
	}
}
