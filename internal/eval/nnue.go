package eval

import (
	"fmt"

	"github.com/hailam/chessplay/sfnnue"
	"github.com/hailam/chessplay/sfnnue/features"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// sfPiece maps [color][piece type] to the network's piece encoding.
var sfPiece = [2][6]int{
	{1, 2, 3, 4, 5, 6},
	{9, 10, 11, 12, 13, 14},
}

// dirtyPiece is one feature change of a move. A square of -1 means the piece
// appeared (from) or disappeared (to).
type dirtyPiece struct {
	piece    int
	from, to int
}

type dirtyState struct {
	pieces [4]dirtyPiece
	count  int
}

func (d *dirtyState) add(piece, from, to int) {
	d.pieces[d.count] = dirtyPiece{piece, from, to}
	d.count++
}

// LoadNetworks reads the big and small network files.
func LoadNetworks(bigFile, smallFile string) (*sfnnue.Networks, error) {
	nets, err := sfnnue.LoadNetworks(bigFile, smallFile)
	if err != nil {
		return nil, fmt.Errorf("load nnue: %w", err)
	}
	log.Info().Str("big", bigFile).Str("small", smallFile).Msg("nnue networks loaded")
	return nets, nil
}

// NNUE evaluates with the shared big and small networks, keeping a private
// accumulator stack that is updated from the dirty pieces of each move.
type NNUE struct {
	nets  *sfnnue.Networks
	acc   *sfnnue.AccumulatorStack
	dirty [sfnnue.MaxStackSize]dirtyState
	buf   [2][32]int
}

// NewNNUE returns an evaluator over nets. The networks are read-only and may
// be shared by any number of evaluators.
func NewNNUE(nets *sfnnue.Networks) *NNUE {
	return &NNUE{nets: nets, acc: sfnnue.NewAccumulatorStack()}
}

// NNUEFactory builds one NNUE evaluator per worker over the same networks.
func NNUEFactory(nets *sfnnue.Networks) Factory {
	return func() Evaluator { return NewNNUE(nets) }
}

func (e *NNUE) Reset(*board.Position) {
	e.acc.Reset()
	e.dirty[0].count = 0
}

func (e *NNUE) Push(pos *board.Position, m board.Move) {
	e.acc.Push()
	level := e.acc.Size - 1
	d := &e.dirty[level]
	d.count = 0

	us := pos.SideToMove
	from, to := int(m.From()), int(m.To())
	mover := sfPiece[us][m.Piece()]

	if m.IsPromotion() {
		d.add(mover, from, -1)
		d.add(sfPiece[us][m.Promotion()], -1, to)
	} else {
		d.add(mover, from, to)
	}
	if m.IsCapture() {
		victim := to
		if m.IsEnPassant() {
			victim = int(board.NewSquare(m.To().File(), m.From().Rank()))
		}
		d.add(sfPiece[us.Other()][m.Captured()], victim, -1)
	}
	if m.IsCastling() {
		rf, rt := rookShift(m.To())
		d.add(sfPiece[us][board.Rook], int(rf), int(rt))
	}

	kingMoved := m.Piece() == board.King
	for _, acc := range [2]*sfnnue.Accumulator{e.acc.CurrentBig(), e.acc.CurrentSmall()} {
		for p := 0; p < 2; p++ {
			acc.Computed[p] = false
			acc.NeedsRefresh[p] = kingMoved && p == int(us)
		}
	}
}

// PushNull keeps the parent accumulators: a null move changes no features.
func (e *NNUE) PushNull() {
	e.acc.Push()
	e.dirty[e.acc.Size-1].count = 0
}

func (e *NNUE) Pop() { e.acc.Pop() }

func (e *NNUE) Evaluate(pos *board.Position) int {
	big, small := e.acc.CurrentBig(), e.acc.CurrentSmall()
	e.refresh(e.nets.Big, big, e.acc.PreviousBig(), pos)
	e.refresh(e.nets.Small, small, e.acc.PreviousSmall(), pos)

	stm := int(pos.SideToMove)
	pieces := pos.AllOccupied.PopCount()
	bigPsqt, bigPositional := e.nets.Big.Evaluate(big.Accumulation, big.PSQTAccumulation, stm, pieces)
	smallPsqt, _ := e.nets.Small.Evaluate(small.Accumulation, small.PSQTAccumulation, stm, pieces)

	score := int(bigPositional) + int(smallPsqt+bigPsqt)/2
	return score - score*pos.HalfMoveClock/rule50Dampening
}

func (e *NNUE) refresh(net *sfnnue.Network, acc, prev *sfnnue.Accumulator, pos *board.Position) {
	d := &e.dirty[e.acc.Size-1]
	for p := 0; p < 2; p++ {
		if acc.Computed[p] {
			continue
		}
		ksq := int(pos.KingSquare[p])
		if prev != nil && prev.Computed[p] && !acc.NeedsRefresh[p] && d.count > 0 {
			removed, added := e.buf[0][:0], e.buf[1][:0]
			for _, dp := range d.pieces[:d.count] {
				if dp.from >= 0 {
					removed = append(removed, features.MakeIndex(p, dp.from, dp.piece, ksq))
				}
				if dp.to >= 0 {
					added = append(added, features.MakeIndex(p, dp.to, dp.piece, ksq))
				}
			}
			net.FeatureTransformer.UpdateAccumulator(removed, added, acc.Accumulation[p], acc.PSQTAccumulation[p])
		} else {
			var active features.IndexList
			for c := board.White; c <= board.Black; c++ {
				for pt := board.Pawn; pt <= board.King; pt++ {
					for bb := pos.Pieces[c][pt]; bb != 0; {
						active.Push(features.MakeIndex(p, int(bb.PopLSB()), sfPiece[c][pt], ksq))
					}
				}
			}
			net.FeatureTransformer.ComputeAccumulator(active.Values[:active.Size], acc.Accumulation[p], acc.PSQTAccumulation[p])
		}
		acc.Computed[p] = true
		acc.KingSq[p] = ksq
	}
}
