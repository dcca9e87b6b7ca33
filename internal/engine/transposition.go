package engine

import (
	"math/bits"
)

// Bound classifies a stored score.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundUpper       // failed low: score is at most the stored value
	BoundLower       // failed high: score is at least the stored value
	BoundExact
)

const (
	clusterSize      = 4
	clusterSlotBytes = 8
	clusterBytes     = clusterSize * clusterSlotBytes

	generationBits = 6
	generationMask = 1<<generationBits - 1

	// ageWeight is the depth an entry loses per generation of age when a
	// replacement victim is chosen.
	ageWeight = 8

	hashFullSample = 1000
)

// TTEntry is the unpacked view of a table slot. MoveKey is the 16-bit move
// identity (board.Move.Key) and must be resolved against the legal moves of
// the probing position before use.
type TTEntry struct {
	MoveKey    uint16
	Score      int16
	Depth      int8
	Bound      Bound
	Generation uint8
}

// ttSlot is one packed 8-byte entry. Slots are read and written with plain
// memory operations by every worker; the 16-bit key check at probe time and
// move revalidation by the caller absorb torn or foreign data.
type ttSlot struct {
	key16    uint16
	move     uint16
	score    int16
	depth    int8
	genBound uint8
}

func (s ttSlot) bound() Bound { return Bound(s.genBound & 3) }
func (s ttSlot) generation() uint8 { return s.genBound >> 2 }

type ttCluster [clusterSize]ttSlot

// TranspositionTable is a fixed-size hash of clustered entries shared by all
// search workers without locks. The high bits of the zobrist key select the
// cluster; the low 16 bits verify the slot.
type TranspositionTable struct {
	clusters   []ttCluster
	shift      uint
	generation uint8
}

// NewTranspositionTable allocates a table of at most sizeMB megabytes,
// rounded down to a power-of-two number of clusters.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table, dropping every entry. It must not run while a
// search uses the table.
func (tt *TranspositionTable) Resize(sizeMB int) {
	n := uint64(max(sizeMB, 1)) << 20 / clusterBytes
	log2 := 63 - bits.LeadingZeros64(n)
	tt.clusters = make([]ttCluster, 1<<log2)
	tt.shift = uint(64 - log2)
	tt.generation = 0
}

// Clear zeroes every entry.
func (tt *TranspositionTable) Clear() {
	clear(tt.clusters)
	tt.generation = 0
}

// NewSearch advances the generation. Called once per search, before workers
// start.
func (tt *TranspositionTable) NewSearch() {
	tt.generation = (tt.generation + 1) & generationMask
}

// Generation returns the current search generation.
func (tt *TranspositionTable) Generation() uint8 { return tt.generation }

// Clusters returns the number of clusters.
func (tt *TranspositionTable) Clusters() int { return len(tt.clusters) }

func (tt *TranspositionTable) cluster(key uint64) *ttCluster {
	return &tt.clusters[key>>tt.shift]
}

func (tt *TranspositionTable) age(gen uint8) int {
	return int((tt.generation - gen) & generationMask)
}

// Fresh reports whether e may be used for a cutoff. Entries more than one
// generation old only seed move ordering.
func (tt *TranspositionTable) Fresh(e TTEntry) bool {
	return tt.age(e.Generation) <= 1
}

// Get probes for key.
func (tt *TranspositionTable) Get(key uint64) (TTEntry, bool) {
	c := tt.cluster(key)
	k := uint16(key)
	for i := range c {
		s := c[i]
		if s.key16 == k && s.bound() != BoundNone {
			return TTEntry{
				MoveKey:    s.move,
				Score:      s.score,
				Depth:      s.depth,
				Bound:      s.bound(),
				Generation: s.generation(),
			}, true
		}
	}
	return TTEntry{}, false
}

// Put stores e under key. A slot with the same key is overwritten, keeping its
// move when e has none. Otherwise an empty slot is used, and failing that the
// slot with the least depth after age weighting.
func (tt *TranspositionTable) Put(key uint64, e TTEntry) {
	c := tt.cluster(key)
	k := uint16(key)

	victim := -1
	for i := range c {
		if c[i].key16 == k && c[i].bound() != BoundNone {
			if e.MoveKey == 0 {
				e.MoveKey = c[i].move
			}
			victim = i
			break
		}
	}
	if victim < 0 {
		best := 0
		for i := range c {
			if c[i].bound() == BoundNone {
				victim = i
				break
			}
			if tt.worth(c[i]) < tt.worth(c[best]) {
				best = i
			}
		}
		if victim < 0 {
			victim = best
		}
	}

	c[victim] = ttSlot{
		key16:    k,
		move:     e.MoveKey,
		score:    e.Score,
		depth:    e.Depth,
		genBound: tt.generation<<2 | uint8(e.Bound),
	}
}

func (tt *TranspositionTable) worth(s ttSlot) int {
	return int(s.depth) - ageWeight*tt.age(s.generation())
}

// HashFull estimates the permille of slots written in the current generation.
func (tt *TranspositionTable) HashFull() int {
	n := min(hashFullSample, len(tt.clusters))
	used := 0
	for i := 0; i < n; i++ {
		for _, s := range tt.clusters[i] {
			if s.bound() != BoundNone && s.generation() == tt.generation {
				used++
			}
		}
	}
	return used * 1000 / (n * clusterSize)
}
