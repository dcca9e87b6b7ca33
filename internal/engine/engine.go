// Package engine searches chess positions with Lazy SMP: every worker runs
// its own iterative-deepening principal variation search on a private copy
// of the root and shares only the transposition table.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

// Engine coordinates the workers of a search. Its methods are safe for
// concurrent use; at most one search runs at a time.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	tt      *TranspositionTable
	factory eval.Factory
	workers []*Worker
	active  *SearchHandle

	// OnInfo, when set, receives the main worker's report after every
	// completed iteration. It runs on a search goroutine.
	OnInfo func(Info)
}

// SearchHandle identifies one running or finished search.
type SearchHandle struct {
	ID uuid.UUID

	engine *Engine
	shared *searchShared
	root   *board.Position
	start  time.Time
	done   chan struct{}
	result SearchResult
	err    error
}

// Done is closed when the search has finished and its result is available.
func (h *SearchHandle) Done() <-chan struct{} { return h.done }

// New builds an engine. The classical evaluator is used unless opts enables
// NNUE with both network files.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, tt: NewTranspositionTable(opts.HashMB)}
	if err := e.loadEvaluator(); err != nil {
		return nil, err
	}
	e.buildWorkers()
	if opts.Debug {
		setDebug(true)
	}
	log.Info().
		Int("hash_mb", opts.HashMB).
		Int("threads", opts.Threads).
		Int("clusters", e.tt.Clusters()).
		Bool("nnue", opts.UseNNUE).
		Msg("engine ready")
	return e, nil
}

// Options returns the current configuration.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetEvaluator replaces the evaluator of every worker. Each worker gets its
// own instance from f.
func (e *Engine) SetEvaluator(f eval.Factory) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.searching() {
		return ErrSearching
	}
	e.factory = f
	e.buildWorkers()
	return nil
}

func (e *Engine) loadEvaluator() error {
	o := e.opts
	if !o.UseNNUE {
		e.factory = eval.ClassicalFactory()
		return nil
	}
	if o.EvalFile == "" || o.EvalFileSmall == "" {
		log.Warn().Msg("nnue enabled without both network files, using classical evaluation")
		e.factory = eval.ClassicalFactory()
		return nil
	}
	nets, err := eval.LoadNetworks(o.EvalFile, o.EvalFileSmall)
	if err != nil {
		return &ConfigError{Option: "EvalFile", Value: o.EvalFile, Reason: err.Error()}
	}
	e.factory = eval.NNUEFactory(nets)
	return nil
}

func (e *Engine) buildWorkers() {
	e.workers = make([]*Worker, e.opts.Threads)
	for i := range e.workers {
		e.workers[i] = newWorker(i, e.tt, e.factory())
	}
}

func (e *Engine) searching() bool {
	if e.active == nil {
		return false
	}
	select {
	case <-e.active.done:
		return false
	default:
		return true
	}
}

// NewGame clears the transposition table and every worker's learnt tables.
func (e *Engine) NewGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.searching() {
		return ErrSearching
	}
	e.tt.Clear()
	for _, w := range e.workers {
		w.clearTables()
	}
	log.Debug().Msg("new game")
	return nil
}

// StartSearch launches a search of pos and returns immediately. A search
// still running is stopped first. pos is copied and not retained.
func (e *Engine) StartSearch(pos *board.Position, limits Limits) (*SearchHandle, error) {
	if limits.Depth < 0 || limits.MovesToGo < 0 || limits.MoveTime < 0 {
		return nil, &ConfigError{Option: "limits", Value: fmt.Sprintf("%+v", limits), Reason: "negative limit"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.searching() {
		e.active.shared.stop.Store(true)
		<-e.active.done
	}

	start := time.Now()
	e.tt.NewSearch()
	shared := &searchShared{
		limits: limits,
		tm:     NewTimeManager(limits, pos.SideToMove, e.opts.MoveOverhead, start),
		info:   e.OnInfo,
		debug:  e.opts.Debug,
	}
	h := &SearchHandle{
		ID:     uuid.New(),
		engine: e,
		shared: shared,
		root:   pos.Copy(),
		start:  start,
		done:   make(chan struct{}),
	}
	e.active = h

	if !h.root.HasLegalMove() {
		h.result = SearchResult{Generation: e.tt.Generation()}
		if h.root.InCheck() {
			h.result.Score = -MateScore
		}
		close(h.done)
		log.Info().Str("search", h.ID.String()).Int("score", h.result.Score).Msg("no legal moves at root")
		return h, nil
	}

	// Worker 0 rescales the budget once it starts.
	soft, hard := shared.tm.Soft(), shared.tm.Hard()

	var g errgroup.Group
	for _, w := range e.workers {
		w.prepare(h.root, shared)
		g.Go(w.run)
	}
	workers := e.workers
	go func() {
		err := g.Wait()
		h.finish(workers, err)
		close(h.done)
	}()

	log.Info().
		Str("search", h.ID.String()).
		Int("threads", len(workers)).
		Int("depth", limits.Depth).
		Uint64("nodes", limits.Nodes).
		Dur("soft", soft).
		Dur("hard", hard).
		Msg("search started")
	return h, nil
}

// finish picks the result once every worker has returned.
func (h *SearchHandle) finish(workers []*Worker, err error) {
	elapsed := time.Since(h.start)
	if err != nil {
		h.err = err
		log.Error().Err(err).Str("search", h.ID.String()).Msg("search aborted")
		return
	}

	res := selectResult(workers)
	if res.Move == board.NoMove {
		var ml board.MoveList
		h.root.GenerateLegalMoves(&ml)
		res.Move = ml.Get(0)
		log.Warn().Str("search", h.ID.String()).Msg("no completed iteration, playing first legal move")
	}
	res.Nodes = h.shared.nodes.Load()
	res.Elapsed = elapsed
	res.Generation = h.engine.tt.Generation()
	h.result = res

	if h.shared.debug {
		if verr := Verify(h.root.ToFEN(), res.Move); verr != nil {
			log.Error().Err(verr).Str("search", h.ID.String()).Msg("move verification failed")
		}
	}
	log.Info().
		Str("search", h.ID.String()).
		Str("move", res.Move.String()).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Int("worker", res.Worker).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", elapsed).
		Msg("search finished")
}

// selectResult prefers the deepest completed iteration, then the worker that
// searched more nodes, then the lowest worker index.
func selectResult(workers []*Worker) SearchResult {
	var best *Worker
	for _, w := range workers {
		if !w.completed {
			continue
		}
		if best == nil || w.result.Depth > best.result.Depth ||
			w.result.Depth == best.result.Depth && w.result.Nodes > best.result.Nodes {
			best = w
		}
	}
	if best == nil {
		return SearchResult{}
	}
	return best.result
}

// Stop asks the search to finish; it returns without waiting.
func (e *Engine) Stop(h *SearchHandle) error {
	if h == nil || h.engine != e {
		return ErrNoSearch
	}
	h.shared.stop.Store(true)
	return nil
}

// BestResult waits for the search to end and returns its result. After Stop
// this is the last completed iteration.
func (e *Engine) BestResult(h *SearchHandle) (SearchResult, error) {
	if h == nil || h.engine != e {
		return SearchResult{}, ErrNoSearch
	}
	<-h.done
	return h.result, h.err
}

// Search runs a search to completion.
func (e *Engine) Search(pos *board.Position, limits Limits) (SearchResult, error) {
	h, err := e.StartSearch(pos, limits)
	if err != nil {
		return SearchResult{}, err
	}
	return e.BestResult(h)
}

// HashFull reports the table occupancy in permille.
func (e *Engine) HashFull() int { return e.tt.HashFull() }

// Perft counts legal move paths of the given depth from pos.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return board.Perft(pos.Copy(), depth)
}
