package store

import "github.com/mtconnect-oss/mtcagent/cmn"

// CurrentState is hashCurrent's value type (spec.md §3): Obs for
// EVENT/SAMPLE data items, Conditions for CONDITION data items. Exactly
// one is populated, matching the data item's own category.
type CurrentState struct {
	Obs        *Observation
	Conditions []Observation // active entries, one per distinct nativeCode
}

// Snapshot copies the state so callers can read it outside the store's
// lock without racing the next ingest.
func (cs *CurrentState) Snapshot() CurrentState {
	out := CurrentState{Obs: cs.Obs}
	if cs.Conditions != nil {
		out.Conditions = append(make([]Observation, 0, len(cs.Conditions)), cs.Conditions...)
	}
	return out
}

// applyCondition implements the two-tier clear rule spec.md §4.3 step 6
// and §9 call out explicitly: an empty-nativeCode NORMAL clears every
// active entry; a NORMAL with a nativeCode clears only that entry;
// anything else (WARNING/FAULT) upserts by nativeCode, so distinct codes
// coexist (invariant 4, spec.md §3).
func applyCondition(cs *CurrentState, obs Observation) {
	lvl, code := obs.Condition.Level, obs.Condition.NativeCode
	switch {
	case lvl == cmn.Normal && code == "":
		cs.Conditions = make([]Observation, 0)
	case lvl == cmn.Normal:
		filtered := cs.Conditions[:0:0]
		for _, e := range cs.Conditions {
			if e.Condition.NativeCode != code {
				filtered = append(filtered, e)
			}
		}
		cs.Conditions = filtered
	default:
		for i, e := range cs.Conditions {
			if e.Condition.NativeCode == code {
				cs.Conditions[i] = obs
				return
			}
		}
		cs.Conditions = append(cs.Conditions, obs)
	}
}
