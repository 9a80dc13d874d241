package store

import (
	"sync"
	"time"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

// Incoming is a single already-resolved observation handed to Ingest.
// Resolving the raw SHDR key to a DataItemID/Category is the caller's job
// (via the Schema Index, spec.md §4.3 step 1) — the store never looks a
// data item up itself, keeping it independent of the schema package.
type Incoming struct {
	DataItemID string
	Category   cmn.Category
	Timestamp  time.Time
	Scalar     string
	Condition  ConditionValue
}

// DataStore is the Data Store of spec.md §4.3: one process-wide circular
// buffer plus hashCurrent/hashLast, shared across every device. A single
// sync.RWMutex satisfies the "reader-writer discipline" spec.md §5
// explicitly allows in place of a lock-free structure; sequence
// allocation and buffer append happen inside one Lock() section per
// spec.md §9's ordering requirement.
type DataStore struct {
	mu        sync.RWMutex
	buf       *ringBuffer
	current   map[uint64]*CurrentState
	last      map[uint64]*Observation
	replayCap uint64
}

func NewDataStore(bufferSize, replayCap int) *DataStore {
	return &DataStore{
		buf:       newRingBuffer(bufferSize),
		current:   make(map[uint64]*CurrentState),
		last:      make(map[uint64]*Observation),
		replayCap: uint64(replayCap),
	}
}

// Ingest applies one resolved observation (spec.md §4.3). It returns the
// allocated sequence and true, or (0, false) if the write was dropped by
// duplicate suppression. Unknown-data-item discards happen one layer up,
// before Ingest is even called, since this store has no schema to check
// the id against.
func (ds *DataStore) Ingest(uuid string, in Incoming) (seq uint64, applied bool) {
	key := itemKey(uuid, in.DataItemID)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if in.Category != cmn.Condition {
		if cs, ok := ds.current[key]; ok && cs.Obs != nil && cs.Obs.Scalar == in.Scalar {
			return 0, false // duplicate suppression (spec.md §4.3 step 2, §3 invariant 3)
		}
	}

	obs := Observation{
		UUID: uuid, DataItemID: in.DataItemID, Category: in.Category,
		Timestamp: in.Timestamp, Scalar: in.Scalar, Condition: in.Condition,
	}
	seq = ds.buf.append(obs)
	obs.Sequence = seq

	cs := ds.current[key]
	if cs == nil {
		cs = &CurrentState{}
		ds.current[key] = cs
	}
	if in.Category == cmn.Condition {
		applyCondition(cs, obs)
	} else {
		if cs.Obs != nil {
			// suppressed duplicates never reach here, so hashLast only ever
			// advances on a genuinely new value (spec.md §9).
			prev := *cs.Obs
			ds.last[key] = &prev
		}
		o := obs
		cs.Obs = &o
	}
	return seq, true
}

// Last returns hashLast's entry for (uuid, dataItemID): the prior distinct
// value, present only once a data item has taken on a second value
// (spec.md §3). The ingest and query paths never read hashLast back;
// Last is its only reader.
func (ds *DataStore) Last(uuid, dataItemID string) (*Observation, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	obs, ok := ds.last[itemKey(uuid, dataItemID)]
	return obs, ok
}

// Bounds returns the store's current first/last/next sequence numbers.
func (ds *DataStore) Bounds() (first, last, next uint64) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.buf.firstSequence(), ds.buf.lastSequence(), ds.buf.nextSequence()
}

// ReplayState is the result of CurrentAt: a point-in-time hashCurrent
// snapshot, either the live one or one reconstructed by replay.
type ReplayState struct {
	Sequence uint64 // lastSequence this snapshot reflects
	byKey    map[uint64]CurrentState
}

func (rs *ReplayState) get(uuid, dataItemID string) (CurrentState, bool) {
	cs, ok := rs.byKey[itemKey(uuid, dataItemID)]
	return cs, ok
}

// Current returns the live (or replayed) EVENT/SAMPLE value for
// (uuid, dataItemID).
func (rs *ReplayState) Current(uuid, dataItemID string) (*Observation, bool) {
	cs, ok := rs.get(uuid, dataItemID)
	if !ok || cs.Obs == nil {
		return nil, false
	}
	return cs.Obs, true
}

// Conditions returns the live (or replayed) active CONDITION entries for
// (uuid, dataItemID); an empty, non-nil result means the data item has
// been observed but currently has no active condition (all clear).
func (rs *ReplayState) Conditions(uuid, dataItemID string) []Observation {
	cs, ok := rs.get(uuid, dataItemID)
	if !ok {
		return nil
	}
	return cs.Conditions
}

// CurrentAt implements the "current" query of spec.md §4.3. at == nil
// returns a live snapshot tagged with the store's lastSequence; at != nil
// replays the buffer from firstSequence through *at onto an empty state.
func (ds *DataStore) CurrentAt(at *uint64) (*ReplayState, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if at == nil {
		byKey := make(map[uint64]CurrentState, len(ds.current))
		for k, cs := range ds.current {
			byKey[k] = cs.Snapshot()
		}
		return &ReplayState{Sequence: ds.buf.lastSequence(), byKey: byKey}, nil
	}

	first, lastSeq := ds.buf.firstSequence(), ds.buf.lastSequence()
	s := *at
	if ds.buf.count == 0 || s < first || s > lastSeq {
		return nil, cmn.NewQueryError(cmn.ErrOutOfRange,
			"at=%d outside [%d, %d]", s, first, lastSeq)
	}
	if n := s - first + 1; n > ds.replayCap {
		return nil, cmn.NewQueryError(cmn.ErrOutOfRange,
			"at=%d would replay %d observations, exceeding the configured cap", s, n)
	}

	byKey := make(map[uint64]CurrentState)
	for _, obs := range ds.buf.rangeSlice(first, s) {
		key := itemKey(obs.UUID, obs.DataItemID)
		cs := cloneOrNew(byKey, key)
		if obs.Category == cmn.Condition {
			applyCondition(&cs, obs)
		} else {
			o := obs
			cs.Obs = &o
		}
		byKey[key] = cs
	}
	return &ReplayState{Sequence: s, byKey: byKey}, nil
}

func cloneOrNew(m map[uint64]CurrentState, key uint64) CurrentState {
	if cs, ok := m[key]; ok {
		return cs
	}
	return CurrentState{}
}

// SampleResult is the outcome of a Sample query (spec.md §4.3).
type SampleResult struct {
	Observations []Observation
	NextSequence uint64
}

// Sample implements the range query of spec.md §4.3: from >= firstSequence,
// 1 <= count <= buffer capacity, returning [from, min(from+count-1,
// lastSequence)] and the clamped nextSequence.
func (ds *DataStore) Sample(from uint64, count int) (*SampleResult, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	first, lastSeq := ds.buf.firstSequence(), ds.buf.lastSequence()
	if ds.buf.count == 0 || from < first {
		return nil, cmn.NewQueryError(cmn.ErrOutOfRange, "from=%d is before firstSequence=%d", from, first)
	}
	if count < 1 {
		return nil, cmn.NewQueryError(cmn.ErrOutOfRange, "count must be greater than or equal to 1")
	}
	if count > ds.buf.cap {
		return nil, cmn.NewQueryError(cmn.ErrOutOfRange, "count=%d exceeds buffer capacity=%d", count, ds.buf.cap)
	}
	to := from + uint64(count) - 1
	if to > lastSeq {
		to = lastSeq
	}
	next := from + uint64(count)
	if next > lastSeq+1 {
		next = lastSeq + 1
	}
	return &SampleResult{Observations: ds.buf.rangeSlice(from, to), NextSequence: next}, nil
}
