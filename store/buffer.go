// Package store implements the Data Store and Asset Store (spec.md §4.3,
// §4.4): the circular sample buffer with monotonic sequence numbering,
// the hashCurrent/hashLast snapshots, and the bounded asset buffer with
// its tombstone-on-remove semantics.
package store

import (
	"time"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

// ConditionValue is the CONDITION observation tuple spec.md §3 defines:
// level plus the four trailing fields, which may be empty strings but are
// never absent.
type ConditionValue struct {
	Level          cmn.ConditionLevel
	NativeCode     string
	NativeSeverity string
	Qualifier      string
	Message        string
}

// Observation is a single value recorded by the ingest pipeline
// (spec.md §3). Scalar carries the EVENT/SAMPLE value; Condition carries
// the CONDITION tuple. Exactly one is meaningful, selected by Category.
type Observation struct {
	Sequence   uint64
	UUID       string
	DataItemID string
	Category   cmn.Category
	Timestamp  time.Time
	Scalar     string
	Condition  ConditionValue
}

// ringBuffer is the circular sample buffer (spec.md §3): fixed capacity,
// FIFO eviction, monotonic sequence allocation. Indexing by
// (sequence-1) % cap is what makes "sequence order" and "ring slot" the
// same arithmetic regardless of how many times the buffer has wrapped.
type ringBuffer struct {
	data    []Observation
	cap     int
	count   int
	nextSeq uint64
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{data: make([]Observation, capacity), cap: capacity, nextSeq: 1}
}

// append allocates the next sequence number, writes obs into its ring
// slot, and advances firstSequence by eviction if the buffer was already
// full. Caller must hold the store's write lock — this is the single
// critical section spec.md §9 requires for sequence allocation.
func (b *ringBuffer) append(obs Observation) uint64 {
	seq := b.nextSeq
	obs.Sequence = seq
	idx := int((seq - 1) % uint64(b.cap))
	b.data[idx] = obs
	b.nextSeq++
	if b.count < b.cap {
		b.count++
	}
	return seq
}

func (b *ringBuffer) firstSequence() uint64 {
	if b.count == 0 {
		return b.nextSeq
	}
	return b.nextSeq - uint64(b.count)
}

func (b *ringBuffer) lastSequence() uint64 {
	if b.count == 0 {
		return 0
	}
	return b.nextSeq - 1
}

func (b *ringBuffer) nextSequence() uint64 { return b.nextSeq }

// get returns the observation at seq, if still retained.
func (b *ringBuffer) get(seq uint64) (Observation, bool) {
	if b.count == 0 || seq < b.firstSequence() || seq > b.lastSequence() {
		return Observation{}, false
	}
	idx := int((seq - 1) % uint64(b.cap))
	return b.data[idx], true
}

// rangeSlice returns the observations in [from, to] in sequence order.
// Caller must have already validated from/to against firstSequence()/
// lastSequence().
func (b *ringBuffer) rangeSlice(from, to uint64) []Observation {
	if to < from {
		return nil
	}
	out := make([]Observation, 0, to-from+1)
	for seq := from; seq <= to; seq++ {
		obs, ok := b.get(seq)
		if !ok {
			continue
		}
		out = append(out, obs)
	}
	return out
}
