package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

// Search tuning.
const (
	pollInterval = 1024
	stopWait     = time.Millisecond

	aspirationDepth    = 5
	aspirationDelta    = 50
	aspirationMaxDelta = 800

	rfpMaxDepth = 6
	rfpMargin   = 80

	razorMaxDepth = 2
	razorBase     = 300
	razorPerDepth = 100

	nmpMinDepth = 3

	futilityMaxDepth = 3

	lmrMinDepth = 3
	iirMinDepth = 4
)

var futilityMargin = [futilityMaxDepth + 1]int{0, 200, 300, 500}

var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrTable[d][m] = int(0.75 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
}

// searchShared is the state every worker of one search sees.
type searchShared struct {
	stop   atomic.Bool
	nodes  atomic.Uint64
	limits Limits
	tm     *TimeManager
	info   func(Info)
	debug  bool
}

// Worker runs iterative deepening on a private copy of the root position.
// Everything but the transposition table and searchShared is owned by the
// worker's goroutine.
type Worker struct {
	id   int
	tt   *TranspositionTable
	eval eval.Evaluator

	pos      *board.Position
	shared   *searchShared
	gameKeys []uint64
	stack    moveStack

	history    History
	killers    [MaxPly + 2][2]board.Move
	correction CorrectionHistory

	pv    [MaxPly + 2][MaxPly + 2]board.Move
	pvLen [MaxPly + 2]int
	evals [MaxPly + 2]int

	nodes     uint64
	flushed   uint64
	selDepth  int
	rootDepth int

	result    SearchResult
	completed bool
}

func newWorker(id int, tt *TranspositionTable, ev eval.Evaluator) *Worker {
	return &Worker{id: id, tt: tt, eval: ev}
}

// prepare readies the worker for a new search from root. History and
// correction tables decay instead of resetting.
func (w *Worker) prepare(root *board.Position, s *searchShared) {
	w.pos = root.Copy()
	w.shared = s
	w.gameKeys = s.limits.History
	w.stack.reset()
	w.eval.Reset(w.pos)

	w.history.Age()
	w.correction.Age()
	clear(w.killers[:])

	w.nodes, w.flushed = 0, 0
	w.selDepth, w.rootDepth = 0, 0
	w.result = SearchResult{Worker: w.id}
	w.completed = false
}

// clearTables forgets everything learnt in previous games.
func (w *Worker) clearTables() {
	w.history.Clear()
	w.correction.Clear()
	clear(w.killers[:])
}

// run is the worker goroutine body. An invariant violation aborts every
// worker of the search.
func (w *Worker) run() (err error) {
	defer func() {
		if err != nil {
			w.shared.stop.Store(true)
		}
	}()
	defer recoverInvariant(&err)

	w.iterate()
	w.flush()
	return nil
}

func (w *Worker) iterate() {
	s := w.shared
	maxDepth := MaxPly - 1
	if s.limits.Depth > 0 {
		maxDepth = min(s.limits.Depth, maxDepth)
	}

	score := 0
	for depth := 1; depth <= maxDepth; depth++ {
		target := depth
		if w.id > 0 {
			target = min(depth+w.id%2, maxDepth)
		}
		if target <= w.result.Depth {
			continue
		}
		if target > 1 && s.stop.Load() {
			return
		}

		w.rootDepth = target
		w.selDepth = 0
		next := w.aspiration(target, score)
		if w.stopped() {
			return
		}
		score = next
		w.complete(target, score)

		if w.id == 0 && w.finishIteration(target, score, maxDepth) {
			s.stop.Store(true)
			return
		}
	}
	if w.id == 0 && s.limits.Infinite {
		w.waitForStop()
	}
}

// ttDepth narrows a search depth to the table's field. Extensions can carry
// it past the int8 range at the deepest iterations.
func ttDepth(depth int) int8 {
	return int8(clamp(depth, math.MinInt8, math.MaxInt8))
}

// waitForStop holds an infinite search open after its last iteration until
// Stop is called.
func (w *Worker) waitForStop() {
	for !w.shared.stop.Load() {
		time.Sleep(stopWait)
	}
}

// aspiration searches the root inside a window around the previous score,
// widening the failing side until the score lands inside.
func (w *Worker) aspiration(depth, prev int) int {
	if depth < aspirationDepth {
		return w.search(depth, -Infinity, Infinity, 0, true)
	}

	delta := aspirationDelta
	alpha, beta := max(prev-delta, -Infinity), min(prev+delta, Infinity)
	for {
		score := w.search(depth, alpha, beta, 0, true)
		if w.stopped() {
			return score
		}
		switch {
		case score <= alpha:
			alpha = max(score-delta, -Infinity)
		case score >= beta:
			beta = min(score+delta, Infinity)
		default:
			return score
		}
		delta *= 2
		if delta > aspirationMaxDelta {
			alpha, beta = -Infinity, Infinity
		}
	}
}

func (w *Worker) complete(depth, score int) {
	pv := make([]board.Move, w.pvLen[0])
	copy(pv, w.pv[0][:w.pvLen[0]])

	w.result = SearchResult{
		Score:      score,
		PV:         pv,
		Depth:      depth,
		SelDepth:   w.selDepth,
		Nodes:      w.nodes,
		Generation: w.tt.Generation(),
		Worker:     w.id,
	}
	if len(pv) > 0 {
		w.result.Move = pv[0]
	}
	if len(pv) > 1 {
		w.result.Ponder = pv[1]
	}
	w.completed = true
	w.history.Age()
}

// finishIteration reports the iteration and decides whether the whole search
// is done. Only the main worker calls it.
func (w *Worker) finishIteration(depth, score, maxDepth int) bool {
	s := w.shared
	elapsed := s.tm.Elapsed()
	nodes := s.nodes.Load() + w.nodes - w.flushed

	if s.info != nil {
		info := Info{
			Depth:    depth,
			SelDepth: w.selDepth,
			Score:    score,
			Nodes:    nodes,
			Time:     elapsed,
			HashFull: w.tt.HashFull(),
			PV:       w.result.PV,
		}
		if ms := elapsed.Milliseconds(); ms > 0 {
			info.NPS = nodes * 1000 / uint64(ms)
		}
		s.info(info)
	}
	log.Debug().
		Int("depth", depth).
		Int("score", score).
		Uint64("nodes", nodes).
		Str("move", w.result.Move.String()).
		Dur("elapsed", elapsed).
		Msg("iteration complete")

	s.tm.Update(w.result.Move, score)
	switch {
	case s.limits.Infinite:
		return false
	case depth >= maxDepth:
		return true
	case IsMate(score) && depth > MateScore-abs(score):
		return true
	}
	return s.tm.SoftExpired()
}

// stopped reports a stop request. The first iteration always completes so
// that a result exists.
func (w *Worker) stopped() bool {
	return w.rootDepth > 1 && w.shared.stop.Load()
}

func (w *Worker) poll() {
	w.nodes++
	if w.nodes&(pollInterval-1) != 0 {
		return
	}
	s := w.shared
	total := s.nodes.Add(w.nodes - w.flushed)
	w.flushed = w.nodes
	if s.limits.Nodes > 0 && total >= s.limits.Nodes || s.tm.HardExpired() {
		s.stop.Store(true)
	}
}

func (w *Worker) flush() {
	w.shared.nodes.Add(w.nodes - w.flushed)
	w.flushed = w.nodes
}

func (w *Worker) evaluate() int {
	return clamp(w.eval.Evaluate(w.pos), -MateThreshold+1, MateThreshold-1)
}

func (w *Worker) updatePV(ply int, m board.Move) {
	w.pv[ply][0] = m
	n := copy(w.pv[ply][1:], w.pv[ply+1][:w.pvLen[ply+1]])
	w.pvLen[ply] = n + 1
}

func (w *Worker) isDraw(ply int) bool {
	if w.pos.IsInsufficientMaterial() {
		return true
	}
	if w.pos.HalfMoveClock >= 100 {
		return !w.pos.InCheck() || w.pos.HasLegalMove()
	}
	return w.isRepetition(ply)
}

// search is the principal variation search. Scores are from the side to
// move's point of view.
func (w *Worker) search(depth, alpha, beta, ply int, pvNode bool) int {
	w.pvLen[ply] = 0
	inCheck := w.pos.InCheck()
	if inCheck && ply < 2*w.rootDepth {
		depth++
	}
	if depth <= 0 {
		return w.quiesce(alpha, beta, ply, 0)
	}

	w.poll()
	if w.stopped() {
		return 0
	}
	w.selDepth = max(w.selDepth, ply)

	root := ply == 0
	if !root {
		if w.isDraw(ply) {
			return 0
		}
		if ply >= MaxPly {
			return w.evaluate()
		}
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	key := w.pos.Hash
	entry, hit := w.tt.Get(key)
	if hit && !root && int(entry.Depth) >= depth && w.tt.Fresh(entry) {
		score := scoreFromTT(int(entry.Score), ply)
		switch entry.Bound {
		case BoundExact:
			return score
		case BoundLower:
			alpha = max(alpha, score)
		case BoundUpper:
			beta = min(beta, score)
		}
		if alpha >= beta {
			return score
		}
	}

	var mp movePicker
	w.pos.GenerateLegalMoves(&mp.moves)
	if mp.moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}
	ttMove := board.NoMove
	if hit {
		if m, ok := mp.moves.Find(entry.MoveKey); ok {
			ttMove = m
		}
	}

	raw := w.evaluate()
	staticEval := raw
	if !inCheck {
		staticEval = clamp(raw+w.correction.Get(w.pos), -MateThreshold+1, MateThreshold-1)
	}
	w.evals[ply] = staticEval
	improving := !inCheck && ply >= 2 && staticEval > w.evals[ply-2]

	if !pvNode && !inCheck {
		if depth <= rfpMaxDepth && abs(beta) < MateThreshold {
			margin := rfpMargin * depth
			if improving {
				margin -= rfpMargin / 2
			}
			if staticEval-margin >= beta {
				return staticEval
			}
		}

		if depth <= razorMaxDepth && staticEval+razorBase+razorPerDepth*depth <= alpha {
			if q := w.quiesce(alpha, beta, ply, 0); q <= alpha {
				return q
			}
		}

		if depth >= nmpMinDepth && staticEval >= beta && abs(beta) < MateThreshold &&
			!w.lastWasNull() && w.pos.HasNonPawnMaterial() {
			r := 3 + depth/4 + min((staticEval-beta)/200, 3)
			w.makeNullMove()
			score := -w.search(depth-1-r, -beta, -beta+1, ply+1, false)
			w.unmakeNullMove()
			if w.stopped() {
				return 0
			}
			if score >= beta {
				if score >= MateThreshold {
					score = beta
				}
				return score
			}
		}
	}

	if ttMove == board.NoMove && depth >= iirMinDepth {
		depth--
	}

	futile := !pvNode && !inCheck && depth <= futilityMaxDepth &&
		staticEval+futilityMargin[depth] <= alpha

	w.scoreMoves(&mp, ttMove, ply)
	bestScore, bestMove := -Infinity, board.NoMove
	bound := BoundUpper
	var quiets [64]board.Move
	nQuiets, searched := 0, 0

	for {
		m, _, ok := mp.pick()
		if !ok {
			break
		}
		quiet := m.IsQuiet()

		w.makeMove(m)
		givesCheck := w.pos.InCheck()
		if futile && quiet && searched > 0 && !givesCheck {
			w.unmakeMove(m)
			continue
		}
		searched++

		newDepth := depth - 1
		var score int
		if searched == 1 {
			score = -w.search(newDepth, -beta, -alpha, ply+1, pvNode)
		} else {
			r := 0
			if depth >= lmrMinDepth && quiet && !inCheck && !givesCheck {
				r = lmrTable[min(depth, 63)][min(searched, 63)]
				if pvNode {
					r--
				}
				if !improving {
					r++
				}
				if m == w.killers[ply][0] || m == w.killers[ply][1] {
					r--
				}
				r -= w.history.Score(w.pos.SideToMove.Other(), m) / 8192
				r = clamp(r, 0, newDepth-1)
			}
			score = -w.search(newDepth-r, -alpha-1, -alpha, ply+1, false)
			if score > alpha && r > 0 {
				score = -w.search(newDepth, -alpha-1, -alpha, ply+1, false)
			}
			if score > alpha && score < beta {
				score = -w.search(newDepth, -beta, -alpha, ply+1, true)
			}
		}
		w.unmakeMove(m)
		if w.stopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			if score > alpha {
				bestMove = m
				if pvNode {
					w.updatePV(ply, m)
				}
				if score >= beta {
					bound = BoundLower
					break
				}
				alpha = score
				bound = BoundExact
			}
		}
		if quiet && m != bestMove && nQuiets < len(quiets) {
			quiets[nQuiets] = m
			nQuiets++
		}
	}

	if bound == BoundLower && bestMove.IsQuiet() {
		w.storeKiller(ply, bestMove)
		w.rewardQuiets(bestMove, quiets[:nQuiets], depth)
	}

	if !inCheck && (bestMove == board.NoMove || bestMove.IsQuiet()) &&
		!(bound == BoundLower && bestScore <= staticEval) &&
		!(bound == BoundUpper && bestScore >= staticEval) {
		w.correction.Update(w.pos, bestScore, raw, depth)
	}

	stored := bestMove
	if stored == board.NoMove {
		stored = ttMove
	}
	w.tt.Put(key, TTEntry{
		MoveKey: stored.Key(),
		Score:   int16(scoreToTT(bestScore, ply)),
		Depth:   ttDepth(depth),
		Bound:   bound,
	})
	return bestScore
}

// quiesce resolves captures until the position is quiet. At its first ply it
// also tries quiet checks; in check it searches every evasion.
func (w *Worker) quiesce(alpha, beta, ply, qply int) int {
	w.pvLen[ply] = 0
	w.poll()
	if w.stopped() {
		return 0
	}
	w.selDepth = max(w.selDepth, ply)
	if ply >= MaxPly {
		return w.evaluate()
	}
	if w.pos.IsInsufficientMaterial() {
		return 0
	}

	entry, hit := w.tt.Get(w.pos.Hash)
	if hit && w.tt.Fresh(entry) {
		score := scoreFromTT(int(entry.Score), ply)
		switch {
		case entry.Bound == BoundExact,
			entry.Bound == BoundLower && score >= beta,
			entry.Bound == BoundUpper && score <= alpha:
			return score
		}
	}

	inCheck := w.pos.InCheck()
	bestScore := -Infinity
	var mp movePicker
	if inCheck {
		w.pos.GenerateLegalMoves(&mp.moves)
		if mp.moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		stand := clamp(w.evaluate()+w.correction.Get(w.pos), -MateThreshold+1, MateThreshold-1)
		if stand >= beta {
			return stand
		}
		alpha = max(alpha, stand)
		bestScore = stand
		w.pos.GenerateCaptures(&mp.moves)
	}

	ttMove := board.NoMove
	if hit {
		if m, ok := mp.moves.Find(entry.MoveKey); ok {
			ttMove = m
		}
	}
	w.scoreMoves(&mp, ttMove, ply)

	for {
		m, score, ok := mp.pick()
		if !ok || !inCheck && score < 0 {
			break
		}
		w.makeMove(m)
		score = -w.quiesce(-beta, -alpha, ply+1, qply+1)
		w.unmakeMove(m)
		if w.stopped() {
			return 0
		}
		if score > bestScore {
			bestScore = score
			if score > alpha {
				alpha = score
				w.updatePV(ply, m)
				if score >= beta {
					return score
				}
			}
		}
	}

	if inCheck || qply > 0 {
		return bestScore
	}

	var checks board.MoveList
	w.pos.GenerateQuietChecks(&checks)
	for _, m := range checks.Slice() {
		if w.pos.SEE(m) < 0 {
			continue
		}
		w.makeMove(m)
		score := -w.quiesce(-beta, -alpha, ply+1, qply+1)
		w.unmakeMove(m)
		if w.stopped() {
			return 0
		}
		if score > bestScore {
			bestScore = score
			if score > alpha {
				alpha = score
				w.updatePV(ply, m)
				if score >= beta {
					return score
				}
			}
		}
	}
	return bestScore
}
