package engine

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// DefaultBenchDepth is used when Bench is given no depth.
const DefaultBenchDepth = 8

var benchFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	"2r3k1/pp3ppp/4p3/3pP3/3P4/P4N2/1P3PPP/2R3K1 b - - 3 25",
}

// BenchResult totals a bench run.
type BenchResult struct {
	Positions int
	Nodes     uint64
	Elapsed   time.Duration
}

// NPS returns nodes per second over the whole run.
func (b BenchResult) NPS() uint64 {
	if ms := b.Elapsed.Milliseconds(); ms > 0 {
		return b.Nodes * 1000 / uint64(ms)
	}
	return 0
}

// Bench searches a fixed position set to depth from a fresh game state each
// time. The node count is a deterministic signature for a single thread.
func (e *Engine) Bench(depth int) (BenchResult, error) {
	if depth <= 0 {
		depth = DefaultBenchDepth
	}
	var res BenchResult
	for _, fen := range benchFENs {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return res, err
		}
		if err := e.NewGame(); err != nil {
			return res, err
		}
		r, err := e.Search(pos, Limits{Depth: depth})
		if err != nil {
			return res, err
		}
		res.Positions++
		res.Nodes += r.Nodes
		res.Elapsed += r.Elapsed
		log.Debug().Str("fen", fen).Str("move", r.Move.String()).Uint64("nodes", r.Nodes).Msg("bench position")
	}
	log.Info().Int("depth", depth).Uint64("nodes", res.Nodes).Uint64("nps", res.NPS()).Msg("bench complete")
	return res, nil
}
