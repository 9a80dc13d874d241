package schema

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/cmn/debug"
)

// deviceIndex is everything the registry derives from one registered
// Device: flat id/name lookup tables plus the flattened per-component
// walk order Walk() and the response assembler both need.
type deviceIndex struct {
	dev      *Device
	byID     map[string]*DataItem
	byName   map[string]*DataItem
	walkList []*ComponentDataItems
}

// ComponentDataItems is one entry of a device's flattened walk order: a
// component together with its own (non-inherited) data items partitioned
// by category, in schema order. Components that own no data items of
// their own still appear so the response assembler can recurse into
// their descendants, but emit no ComponentStream of their own (spec.md
// §4.5 rule 3: "Omit components with no emitted elements").
type ComponentDataItems struct {
	Component  *Component
	Samples    []*DataItem
	Events     []*DataItem
	Conditions []*DataItem
}

// Empty reports whether this component contributes no Samples, Events, or
// Condition entries of its own.
func (c *ComponentDataItems) Empty() bool {
	return len(c.Samples) == 0 && len(c.Events) == 0 && len(c.Conditions) == 0
}

func buildIndex(dev *Device) *deviceIndex {
	idx := &deviceIndex{
		dev:    dev,
		byID:   make(map[string]*DataItem),
		byName: make(map[string]*DataItem),
	}
	var walk func(c *Component)
	walk = func(c *Component) {
		entry := &ComponentDataItems{Component: c}
		for _, di := range c.DataItems {
			idx.byID[di.ID] = di
			if di.Name != "" {
				idx.byName[di.Name] = di
			}
			switch di.Category {
			case cmn.Sample:
				entry.Samples = append(entry.Samples, di)
			case cmn.Event:
				entry.Events = append(entry.Events, di)
			case cmn.Condition:
				entry.Conditions = append(entry.Conditions, di)
			}
		}
		idx.walkList = append(idx.walkList, entry)
		for _, child := range c.Components {
			walk(child)
		}
	}
	walk(dev.Root)
	return idx
}

// registrySnapshot is the immutable value the Registry's atomic pointer
// holds — readers never block behind the registration mutex, matching
// the teacher's Sowner/Smap lock-free-read pattern (cluster/map.go).
type registrySnapshot struct {
	byUUID map[string]*deviceIndex
	byName map[string]string // device name -> uuid
}

func emptySnapshot() *registrySnapshot {
	return &registrySnapshot{byUUID: map[string]*deviceIndex{}, byName: map[string]string{}}
}

// Registry is the schema index (spec.md §4.2): read-mostly, built once per
// device registration, immutable thereafter.
type Registry struct {
	mtx  sync.Mutex // serializes registration only; readers never take it
	snap atomic.Pointer[registrySnapshot]
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(emptySnapshot())
	return r
}

func (r *Registry) load() *registrySnapshot {
	s := r.snap.Load()
	debug.Assert(s != nil, "registry read before init")
	return s
}

// Register adds dev to the registry. duplicateUuidCheck (spec.md §4.2):
// a device whose uuid is already registered is rejected — the existing
// registration wins — rather than replaced.
func (r *Registry) Register(dev *Device) (registered bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	cur := r.load()
	if _, exists := cur.byUUID[dev.UUID]; exists {
		return false
	}
	next := &registrySnapshot{
		byUUID: make(map[string]*deviceIndex, len(cur.byUUID)+1),
		byName: make(map[string]string, len(cur.byName)+1),
	}
	for k, v := range cur.byUUID {
		next.byUUID[k] = v
	}
	for k, v := range cur.byName {
		next.byName[k] = v
	}
	next.byUUID[dev.UUID] = buildIndex(dev)
	next.byName[dev.Name] = dev.UUID
	r.snap.Store(next)
	return true
}

// DeviceUUID resolves a device name to its uuid.
func (r *Registry) DeviceUUID(name string) (string, bool) {
	uuid, ok := r.load().byName[name]
	return uuid, ok
}

// Device returns the registered Device for uuid, if any.
func (r *Registry) Device(uuid string) (*Device, bool) {
	idx, ok := r.load().byUUID[uuid]
	if !ok {
		return nil, false
	}
	return idx.dev, true
}

// Devices returns every registered device, in no particular order — used
// to answer a device-less /probe, /current, /sample request (spec.md §6:
// "no device prefix (all devices)").
func (r *Registry) Devices() []*Device {
	snap := r.load()
	out := make([]*Device, 0, len(snap.byUUID))
	for _, idx := range snap.byUUID {
		out = append(out, idx.dev)
	}
	return out
}

// DataItem resolves nameOrId against uuid's device, trying id first (ids
// are always present; names are optional and may collide with another
// device's id space, so id takes precedence on ambiguity).
func (r *Registry) DataItem(uuid, nameOrID string) (*DataItem, bool) {
	idx, ok := r.load().byUUID[uuid]
	if !ok {
		return nil, false
	}
	if di, ok := idx.byID[nameOrID]; ok {
		return di, true
	}
	di, ok := idx.byName[nameOrID]
	return di, ok
}

// Walk returns uuid's device flattened in preorder, one entry per
// component together with the data items it directly owns (spec.md
// §4.2, §4.5).
func (r *Registry) Walk(uuid string) ([]*ComponentDataItems, bool) {
	idx, ok := r.load().byUUID[uuid]
	if !ok {
		return nil, false
	}
	return idx.walkList, true
}
