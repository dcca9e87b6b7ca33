package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

func newTestUCI(t *testing.T, store *storage.Store) *UCI {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.HashMB = 1
	eng, err := engine.New(opts)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(eng, store)
}

// session feeds script to a fresh handler and returns everything it wrote.
func session(t *testing.T, u *UCI, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	u.SetIO(strings.NewReader(strings.Join(script, "\n")+"\n"), &out)
	if err := u.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestParseGoOptions(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		args []string
		want engine.Limits
	}{
		{nil, engine.Limits{}},
		{[]string{"infinite"}, engine.Limits{Infinite: true}},
		{[]string{"depth", "7", "nodes", "5000"}, engine.Limits{Depth: 7, Nodes: 5000}},
		{[]string{"movetime", "250"}, engine.Limits{MoveTime: 250 * ms}},
		{
			[]string{"wtime", "60000", "btime", "55000", "winc", "1000", "binc", "900", "movestogo", "12"},
			engine.Limits{
				Time:      [2]time.Duration{60000 * ms, 55000 * ms},
				Inc:       [2]time.Duration{1000 * ms, 900 * ms},
				MovesToGo: 12,
			},
		},
		{[]string{"ponder", "wtime", "-20"}, engine.Limits{Time: [2]time.Duration{ms, 0}}},
	}
	for _, tt := range tests {
		got, err := parseGoOptions(tt.args)
		if err != nil {
			t.Fatalf("parseGoOptions(%v): %v", tt.args, err)
		}
		if got.Time != tt.want.Time || got.Inc != tt.want.Inc || got.MovesToGo != tt.want.MovesToGo ||
			got.MoveTime != tt.want.MoveTime || got.Depth != tt.want.Depth ||
			got.Nodes != tt.want.Nodes || got.Infinite != tt.want.Infinite {
			t.Errorf("parseGoOptions(%v) = %+v, want %+v", tt.args, got, tt.want)
		}
	}

	for _, bad := range [][]string{{"depth"}, {"depth", "x"}, {"nodes", "-1"}} {
		if _, err := parseGoOptions(bad); err == nil {
			t.Errorf("parseGoOptions(%v) succeeded", bad)
		}
	}
}

func TestParseSetOption(t *testing.T) {
	is := is.New(t)
	name, value := parseSetOption(strings.Fields("name Move Overhead value 30"))
	is.Equal(name, "Move Overhead")
	is.Equal(value, "30")

	name, value = parseSetOption(strings.Fields("name EvalFile value /nets/a b.nnue"))
	is.Equal(name, "EvalFile")
	is.Equal(value, "/nets/a b.nnue")

	name, value = parseSetOption(strings.Fields("name UseNNUE"))
	is.Equal(name, "UseNNUE")
	is.Equal(value, "")
}

func TestFormatScore(t *testing.T) {
	is := is.New(t)
	is.Equal(formatScore(35), "cp 35")
	is.Equal(formatScore(-120), "cp -120")
	is.Equal(formatScore(engine.MateScore-1), "mate 1")
	is.Equal(formatScore(engine.MateScore-3), "mate 2")
	is.Equal(formatScore(-engine.MateScore+2), "mate -1")
}

func TestHandshake(t *testing.T) {
	is := is.New(t)
	out := session(t, newTestUCI(t, nil), "uci", "isready", "quit")
	is.True(strings.Contains(out, "id name "+engineName))
	is.True(strings.Contains(out, "option name Hash type spin"))
	is.True(strings.Contains(out, "option name Move Overhead type spin"))
	is.True(strings.Contains(out, "uciok"))
	is.True(strings.HasSuffix(out, "readyok\n"))
}

func TestPositionHistory(t *testing.T) {
	is := is.New(t)
	u := newTestUCI(t, nil)

	u.handlePosition(strings.Fields("startpos moves g1f3 g8f6 f3g1 f6g8"))
	is.Equal(len(u.history), 4)
	is.Equal(u.history[0], board.NewPosition().Hash)
	is.Equal(u.position.Hash, board.NewPosition().Hash)

	fen := "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"
	u.handlePosition(append([]string{"fen"}, append(strings.Fields(fen), "moves", "e2e4")...))
	is.Equal(len(u.history), 1)
	is.Equal(u.position.ToFEN(), "4k3/8/8/8/4P3/8/8/4K3 b - - 0 1")

	// invalid fen keeps the previous position
	before := u.position.Hash
	u.handlePosition(strings.Fields("fen not a fen"))
	is.Equal(u.position.Hash, before)
}

func TestGoReportsBestMove(t *testing.T) {
	is := is.New(t)
	out := session(t, newTestUCI(t, nil),
		"position fen 6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
		"go depth 3",
		"isready",
	)
	is.True(strings.Contains(out, "info depth 1 "))
	is.True(strings.Contains(out, "bestmove "))
	is.True(strings.Contains(out, "score mate 1"))
	is.True(strings.Contains(out, "bestmove d1d8"))
}

func TestGoOnTerminalPosition(t *testing.T) {
	is := is.New(t)
	// black is checkmated
	out := session(t, newTestUCI(t, nil),
		"position fen 3R2k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1",
		"go movetime 50",
	)
	is.True(strings.Contains(out, "bestmove 0000"))
}

func TestStopInfinite(t *testing.T) {
	is := is.New(t)
	u := newTestUCI(t, nil)
	var out bytes.Buffer
	u.SetIO(strings.NewReader(""), &out)

	u.handlePosition([]string{"startpos"})
	u.handleGo([]string{"infinite"})
	time.Sleep(50 * time.Millisecond)
	u.handleStop()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	last := lines[len(lines)-1]
	is.True(strings.HasPrefix(last, "bestmove "))
	_, err := board.NewPosition().ParseMove(strings.Fields(last)[1])
	is.NoErr(err)
	is.Equal(u.search, nil)
}

func TestPerftCommand(t *testing.T) {
	is := is.New(t)
	out := session(t, newTestUCI(t, nil), "position startpos", "perft 2")
	is.True(strings.Contains(out, "e2e4: 20"))
	is.True(strings.Contains(out, "Nodes: 400"))
}

func TestSetOptionPersists(t *testing.T) {
	is := is.New(t)
	store, err := storage.Open(t.TempDir())
	is.NoErr(err)
	defer store.Close()
	u := newTestUCI(t, store)

	out := session(t, u,
		"setoption name hash value 2",
		"setoption name Threads value 0",
		"setoption name Move Overhead value 40",
	)
	is.True(strings.Contains(out, "info string"))
	is.Equal(u.engine.Options().HashMB, 2)
	is.Equal(u.engine.Options().MoveOverhead, 40*time.Millisecond)

	values, err := store.LoadOptions()
	is.NoErr(err)
	is.Equal(values["Hash"], "2")
	is.Equal(values["Move Overhead"], "40")
	_, ok := values["Threads"]
	is.True(!ok) // rejected values are not stored
}

func TestSearchJournaled(t *testing.T) {
	is := is.New(t)
	store, err := storage.Open(t.TempDir())
	is.NoErr(err)
	defer store.Close()

	session(t, newTestUCI(t, store), "position startpos moves e2e4", "go depth 2", "isready")

	recent, err := store.RecentSearches(5)
	is.NoErr(err)
	is.Equal(len(recent), 1)
	is.Equal(recent[0].FEN, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	is.True(recent[0].Move != "" && recent[0].Move != "0000")
	is.True(recent[0].Depth >= 1)
}
