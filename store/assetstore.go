package store

import (
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"
)

// AssetElement is one node of an asset's structured value — the
// "dynamic-shape JSON intermediary" spec.md §9 flags as something a
// typed implementation should replace with a proper tree type. Name is
// the element's tag, Text its direct text content (if a leaf), and
// Children its nested elements, in document order.
type AssetElement struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*AssetElement
}

// findOrCreate locates the innermost descendant named name (depth-first),
// creating a direct child with that name if none exists — the mutation
// @UPDATE_ASSET@ needs (spec.md §4.4: "mutate the innermost element named
// k... setting its text to v").
func (e *AssetElement) findOrCreate(name string) *AssetElement {
	if found := e.find(name); found != nil {
		return found
	}
	child := &AssetElement{Name: name}
	e.Children = append(e.Children, child)
	return child
}

func (e *AssetElement) find(name string) *AssetElement {
	var deepest *AssetElement
	for _, c := range e.Children {
		if c.Name == name {
			deepest = c
		}
		if found := c.find(name); found != nil {
			deepest = found
		}
	}
	return deepest
}

// KV is one key/value pair of an @UPDATE_ASSET@ command.
type KV struct{ Key, Value string }

// Asset is one record of the asset store (spec.md §3).
type Asset struct {
	AssetID   string
	AssetType string
	UUID      string
	Timestamp time.Time
	Value     *AssetElement
	Removed   bool
}

func (a *Asset) clone() *Asset {
	cp := *a
	cp.Value = cloneElement(a.Value)
	return &cp
}

func cloneElement(e *AssetElement) *AssetElement {
	if e == nil {
		return nil
	}
	cp := &AssetElement{Name: e.Name, Text: e.Text}
	if e.Attrs != nil {
		cp.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			cp.Attrs[k] = v
		}
	}
	for _, c := range e.Children {
		cp.Children = append(cp.Children, cloneElement(c))
	}
	return cp
}

// AssetStore is the Asset Store of spec.md §4.4: a bounded FIFO buffer of
// historical Asset records plus hashAssetCurrent, the latest record per
// asset id.
type AssetStore struct {
	mu      sync.RWMutex
	cap     int
	buf     []*Asset // FIFO, oldest first
	current map[string]*Asset
}

func NewAssetStore(capacity int) *AssetStore {
	return &AssetStore{cap: capacity, current: make(map[string]*Asset)}
}

func (s *AssetStore) appendLocked(a *Asset) {
	s.buf = append(s.buf, a)
	if len(s.buf) > s.cap {
		s.buf = s.buf[len(s.buf)-s.cap:]
	}
}

// Upsert implements @ASSET@: parse xml into a structured value, replace
// hashAssetCurrent[id] wholesale, append to the buffer.
func (s *AssetStore) Upsert(uuid, assetID, assetType, xmlBlob string, ts time.Time) {
	value, err := parseAssetXML(xmlBlob)
	if err != nil {
		glog.Warningf("asset(%s): failed to parse @ASSET@ body for %s: %v", uuid, assetID, err)
		return
	}
	a := &Asset{AssetID: assetID, AssetType: assetType, UUID: uuid, Timestamp: ts, Value: value}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[assetID] = a
	s.appendLocked(a.clone())
}

// Update implements @UPDATE_ASSET@: locate the current asset, patch the
// innermost element named by each key with its new text, bump the
// timestamp, and append a new buffer record reflecting the mutated
// state. An unknown id is discarded and logged (spec.md §4.4).
func (s *AssetStore) Update(uuid, assetID string, kvs []KV, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.current[assetID]
	if !ok {
		glog.Warningf("asset(%s): @UPDATE_ASSET@ for unknown id %s, discarding", uuid, assetID)
		return
	}
	if a.Value == nil {
		a.Value = &AssetElement{Name: a.AssetType}
	}
	for _, kv := range kvs {
		a.Value.findOrCreate(kv.Key).Text = kv.Value
	}
	a.Timestamp = ts
	s.appendLocked(a.clone())
}

// Remove implements @REMOVE_ASSET@: tombstone, don't delete (spec.md §4.4,
// §9's resolved Open Question). The first removal sets Removed, takes the
// line's timestamp and appends one buffer record. Repeated removals are
// idempotent: removing an already-tombstoned asset changes nothing, so
// `removed` stays true, the current map never grows an extra entry, and
// no further buffer record is appended.
func (s *AssetStore) Remove(uuid, assetID string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.current[assetID]
	if !ok {
		glog.Warningf("asset(%s): @REMOVE_ASSET@ for unknown id %s, discarding", uuid, assetID)
		return
	}
	if a.Removed {
		return
	}
	a.Removed = true
	a.Timestamp = ts
	s.appendLocked(a.clone())
}

// Current returns the current record for assetID, if any (tombstoned
// records are still returned — spec.md invariant 5).
func (s *AssetStore) Current(assetID string) (*Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.current[assetID]
	if !ok {
		return nil, false
	}
	return a.clone(), true
}

// List returns every current asset, optionally filtered by type, ordered
// by Timestamp with the most recently updated last; count > 0 keeps only
// the first count of that order, count <= 0 means unbounded.
func (s *AssetStore) List(assetType string, count int) []*Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Asset, 0, len(s.current))
	for _, a := range s.current {
		if assetType != "" && a.AssetType != assetType {
			continue
		}
		out = append(out, a.clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

// Count returns the number of distinct asset ids currently tracked
// (spec.md §4.5 Header field assetCount), including tombstoned ones.
func (s *AssetStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// parseAssetXML turns an asset's raw XML blob into an AssetElement tree
// using the stdlib's encoding/xml tokenizer. This is the one place the
// agent reads XML rather than writes it — the agent's own document
// serialization lives in package response and targets encoding/xml's
// Encoder, so the decoder side reuses the same package rather than
// pulling in a second XML library.
func parseAssetXML(blob string) (*AssetElement, error) {
	return parseXMLElement(blob)
}
