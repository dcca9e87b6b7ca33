// Package uci speaks the Universal Chess Interface on top of the engine.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

const (
	engineName   = "ChessCore"
	engineAuthor = "ChessPlay Team"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	store  *storage.Store // optional

	in    io.Reader
	out   io.Writer
	outMu sync.Mutex

	position *board.Position
	// Keys of the positions before each move played since the last
	// "position" command, oldest first.
	history []uint64

	search   *engine.SearchHandle
	reported chan struct{} // closed once bestmove for search is written
}

// New creates a protocol handler reading stdin and writing stdout. store may
// be nil, in which case options are not persisted and searches not journaled.
func New(eng *engine.Engine, store *storage.Store) *UCI {
	u := &UCI{
		engine:   eng,
		store:    store,
		in:       os.Stdin,
		out:      os.Stdout,
		position: board.NewPosition(),
	}
	eng.OnInfo = u.sendInfo
	return u
}

// SetIO replaces the protocol streams.
func (u *UCI) SetIO(in io.Reader, out io.Writer) {
	u.in = in
	u.out = out
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run processes commands until "quit" or the end of input. A search still
// running at that point is stopped and its bestmove written before Run
// returns.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.printf("%s", u.position.String())
			u.printf("Fen: %s", u.position.ToFEN())
			u.printf("Key: %016x", u.position.Hash)
		case "perft":
			u.handlePerft(args)
		case "bench":
			u.handleBench(args)
		default:
			u.printf("info string unknown command: %s", cmd)
		}
	}
	u.handleStop()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.printf("id name %s", engineName)
	u.printf("id author %s", engineAuthor)
	u.printf("")
	for _, spec := range engine.OptionSpecs() {
		u.printf("%s", spec.UCI())
	}
	u.printf("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	if err := u.engine.NewGame(); err != nil {
		log.Error().Err(err).Msg("ucinewgame")
	}
	u.position = board.NewPosition()
	u.history = nil
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos [moves e2e4 e7e5 ...]
//   - position fen <fen> [moves ...]
//
// An invalid FEN leaves the current position unchanged; moves are applied up
// to the first illegal one.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := lo.IndexOf(args, "moves")
	end := len(args)
	if movesAt >= 0 {
		end = movesAt
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:end], " "))
		if err != nil {
			u.printf("info string invalid fen: %v", err)
			return
		}
	default:
		return
	}

	var history []uint64
	if movesAt >= 0 {
		for _, s := range args[movesAt+1:] {
			m, err := pos.ParseMove(s)
			if err != nil {
				u.printf("info string %v", err)
				break
			}
			history = append(history, pos.Hash)
			pos.MakeMove(m)
		}
	}
	u.position = pos
	u.history = history
}

// parseGoOptions parses "go" command arguments into search limits. Times are
// in milliseconds.
func parseGoOptions(args []string) (engine.Limits, error) {
	var l engine.Limits
	next := func(i int) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("go %s: missing value", args[i])
		}
		return args[i+1], nil
	}
	ms := func(s string) (time.Duration, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * time.Millisecond, nil
	}

	for i := 0; i < len(args); i++ {
		key := args[i]
		switch key {
		case "infinite":
			l.Infinite = true
			continue
		case "wtime", "btime", "winc", "binc", "movetime", "movestogo", "depth", "nodes":
		default:
			continue // ponder, searchmoves and unknown tokens
		}
		val, err := next(i)
		if err != nil {
			return l, err
		}
		i++

		switch key {
		case "wtime":
			l.Time[board.White], err = ms(val)
		case "btime":
			l.Time[board.Black], err = ms(val)
		case "winc":
			l.Inc[board.White], err = ms(val)
		case "binc":
			l.Inc[board.Black], err = ms(val)
		case "movetime":
			l.MoveTime, err = ms(val)
		case "movestogo":
			l.MovesToGo, err = strconv.Atoi(val)
		case "depth":
			l.Depth, err = strconv.Atoi(val)
		case "nodes":
			l.Nodes, err = strconv.ParseUint(val, 10, 64)
		}
		if err != nil {
			return l, fmt.Errorf("go %s %s: %w", key, val, err)
		}
	}

	// The clock may be negative after a flag fall; search as fast as possible.
	for c := range l.Time {
		if l.Time[c] < 0 {
			l.Time[c] = time.Millisecond
		}
	}
	return l, nil
}

// handleGo starts a search and reports bestmove once it ends.
func (u *UCI) handleGo(args []string) {
	limits, err := parseGoOptions(args)
	if err != nil {
		u.printf("info string %v", err)
		return
	}
	limits.History = append([]uint64(nil), u.history...)

	u.handleStop()
	root := u.position.Copy()
	h, err := u.engine.StartSearch(root, limits)
	if err != nil {
		log.Error().Err(err).Msg("start search")
		u.printf("info string %v", err)
		u.printf("bestmove 0000")
		return
	}

	reported := make(chan struct{})
	u.search, u.reported = h, reported
	go func() {
		defer close(reported)
		res, err := u.engine.BestResult(h)
		if err != nil {
			log.Error().Err(err).Str("search", h.ID.String()).Msg("search failed")
			u.printf("bestmove %s", firstLegal(root))
			return
		}
		if res.Ponder != board.NoMove {
			u.printf("bestmove %s ponder %s", res.Move, res.Ponder)
		} else {
			u.printf("bestmove %s", res.Move)
		}
		u.journal(h, root, res)
	}()
}

func firstLegal(pos *board.Position) board.Move {
	var ml board.MoveList
	pos.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		return board.NoMove
	}
	return ml.Get(0)
}

// journal records a finished search when a store is attached.
func (u *UCI) journal(h *engine.SearchHandle, root *board.Position, res engine.SearchResult) {
	if u.store == nil {
		return
	}
	_, err := u.store.RecordSearch(storage.SearchRecord{
		ID:      h.ID,
		FEN:     root.ToFEN(),
		Move:    res.Move.String(),
		Score:   res.Score,
		Depth:   res.Depth,
		Nodes:   res.Nodes,
		Elapsed: res.Elapsed,
	})
	if err != nil {
		log.Warn().Err(err).Str("search", h.ID.String()).Msg("journal search")
	}
}

// formatScore renders a score as "cp N" or "mate N".
func formatScore(score int) string {
	if engine.IsMate(score) {
		return fmt.Sprintf("mate %d", engine.MateIn(score))
	}
	return fmt.Sprintf("cp %d", score)
}

func formatPV(pv []board.Move) string {
	return strings.Join(lo.Map(pv, func(m board.Move, _ int) string { return m.String() }), " ")
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.Info) {
	line := fmt.Sprintf("info depth %d seldepth %d score %s nodes %d nps %d time %d hashfull %d",
		info.Depth, info.SelDepth, formatScore(info.Score), info.Nodes, info.NPS,
		info.Time.Milliseconds(), info.HashFull)
	if len(info.PV) > 0 {
		line += " pv " + formatPV(info.PV)
	}
	u.printf("%s", line)
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.search == nil {
		return
	}
	if err := u.engine.Stop(u.search); err != nil {
		log.Warn().Err(err).Msg("stop")
	}
	<-u.reported
	u.search, u.reported = nil, nil
}

// parseSetOption splits "name <name...> value <value...>".
func parseSetOption(args []string) (name, value string) {
	var names, values []string
	target := &names
	for _, arg := range args {
		switch arg {
		case "name":
			target = &names
		case "value":
			target = &values
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(names, " "), strings.Join(values, " ")
}

// handleSetOption processes "setoption" commands and persists accepted
// values.
func (u *UCI) handleSetOption(args []string) {
	name, value := parseSetOption(args)
	if err := u.engine.SetOption(name, value); err != nil {
		log.Error().Err(err).Str("option", name).Msg("setoption")
		u.printf("info string %v", err)
		return
	}
	if u.store == nil {
		return
	}
	spec, _ := engine.LookupOption(name)
	if err := u.store.SaveOption(spec.Name, value); err != nil {
		log.Warn().Err(err).Str("option", spec.Name).Msg("persist option")
	}
}

// handlePerft prints the divide counts and the total for the current
// position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	divide := board.Divide(u.position.Copy(), depth)
	elapsed := time.Since(start)

	moves := lo.Keys(divide)
	sort.Slice(moves, func(i, j int) bool { return moves[i].String() < moves[j].String() })
	var total uint64
	for _, m := range moves {
		u.printf("%s: %d", m, divide[m])
		total += divide[m]
	}
	u.printf("")
	u.printf("Nodes: %d", total)
	u.printf("Time: %v", elapsed)
	if ms := elapsed.Milliseconds(); ms > 0 {
		u.printf("NPS: %d", total*1000/uint64(ms))
	}
}

// handleBench runs the fixed bench set at an optional depth.
func (u *UCI) handleBench(args []string) {
	u.handleStop()
	depth := 0
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}
	res, err := u.engine.Bench(depth)
	if err != nil {
		u.printf("info string bench: %v", err)
		return
	}
	u.printf("Positions: %d", res.Positions)
	u.printf("Nodes: %d", res.Nodes)
	u.printf("Time: %d ms", res.Elapsed.Milliseconds())
	u.printf("NPS: %d", res.NPS())
}
