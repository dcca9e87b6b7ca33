package engine

import (
	"testing"

	"github.com/matryer/is"
)

func TestTTRoundTrip(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	tt.NewSearch()

	const key = 0x9d39247e33776d41
	want := TTEntry{MoveKey: 0x0c1c, Score: -37, Depth: 9, Bound: BoundLower}
	tt.Put(key, want)

	got, ok := tt.Get(key)
	is.True(ok)
	want.Generation = tt.Generation()
	is.Equal(got, want)

	_, ok = tt.Get(key ^ 1)
	is.True(!ok) // verification key differs
}

func TestTTSizing(t *testing.T) {
	is := is.New(t)
	is.Equal(NewTranspositionTable(1).Clusters(), 1<<20/clusterBytes)
	is.Equal(NewTranspositionTable(3).Clusters(), 2<<20/clusterBytes)
}

func TestTTSameKeyKeepsMove(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	tt.NewSearch()

	const key = 0x1234_5678_9abc_def0
	tt.Put(key, TTEntry{MoveKey: 77, Score: 10, Depth: 4, Bound: BoundExact})
	tt.Put(key, TTEntry{Score: -5, Depth: 6, Bound: BoundUpper})

	got, ok := tt.Get(key)
	is.True(ok)
	is.Equal(got.MoveKey, uint16(77))
	is.Equal(got.Score, int16(-5))
	is.Equal(got.Bound, BoundUpper)
}

func TestTTReplacement(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	tt.NewSearch()

	// Keys sharing the high bits land in one cluster.
	const base = 0xabcd_0000_0000_0000
	for i := 1; i <= clusterSize; i++ {
		tt.Put(base|uint64(i), TTEntry{Depth: int8(10 + i), Bound: BoundExact})
	}
	// Age the cluster by two generations except for one refreshed entry.
	tt.NewSearch()
	tt.NewSearch()
	tt.Put(base|4, TTEntry{Depth: 1, Bound: BoundExact})

	tt.Put(base|99, TTEntry{Depth: 5, Bound: BoundExact})

	_, ok := tt.Get(base | 1)
	is.True(!ok) // shallowest aged entry evicted
	for _, k := range []uint64{2, 3, 4, 99} {
		_, ok := tt.Get(base | k)
		is.True(ok)
	}
}

func TestTTFreshness(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	tt.NewSearch()
	tt.Put(42, TTEntry{Depth: 3, Bound: BoundExact})

	e, _ := tt.Get(42)
	is.True(tt.Fresh(e))
	tt.NewSearch()
	is.True(tt.Fresh(e))
	tt.NewSearch()
	is.True(!tt.Fresh(e)) // ordering hint only

	_, ok := tt.Get(42)
	is.True(ok)
}

func TestTTGenerationWraps(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	for range generationMask + 1 {
		tt.NewSearch()
	}
	is.Equal(tt.Generation(), uint8(0))
}

func TestTTHashFullAndClear(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1)
	tt.NewSearch()
	is.Equal(tt.HashFull(), 0)

	for i := range hashFullSample {
		for s := range clusterSize {
			key := uint64(i)<<tt.shift | uint64(s+1)
			tt.Put(key, TTEntry{Depth: 1, Bound: BoundLower})
		}
	}
	is.Equal(tt.HashFull(), 1000)

	tt.Clear()
	is.Equal(tt.HashFull(), 0)
}

func TestMateScoreConversion(t *testing.T) {
	is := is.New(t)
	for _, score := range []int{MateScore - 5, -MateScore + 8, 137, -42, 0} {
		for _, ply := range []int{0, 3, 17} {
			is.Equal(scoreFromTT(scoreToTT(score, ply), ply), score)
		}
	}
	// mate in 5 plies from the root is mate in 2 from a node at ply 3
	is.Equal(scoreToTT(MateScore-5, 3), MateScore-2)
	is.True(IsMate(-MateScore + 10))
	is.True(!IsMate(900))

	// torn slots may hold any int16
	is.Equal(scoreFromTT(32767, 2), MateScore)
	is.Equal(scoreFromTT(-32768, 0), -MateScore)
}

func TestTTDepthClamped(t *testing.T) {
	is := is.New(t)
	is.Equal(ttDepth(5), int8(5))
	is.Equal(ttDepth(MaxPly), int8(127))
	is.Equal(ttDepth(MaxPly+8), int8(127))

	tt := NewTranspositionTable(1)
	tt.Put(42, TTEntry{MoveKey: 1, Depth: ttDepth(MaxPly), Bound: BoundLower})
	e, ok := tt.Get(42)
	is.True(ok)
	is.True(e.Depth > 0)
}
