package response

import (
	"strconv"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/schema"
	"github.com/mtconnect-oss/mtcagent/store"
)

// bounds is the Data Store's (firstSequence, lastSequence, nextSequence)
// triple, carried separately from the ReplayState so a historical
// current?at= snapshot can still report the store's live bounds in its
// Header while its body reflects the replayed point in time.
type bounds struct{ first, last, next uint64 }

// CurrentDocument builds an MTConnectStreams document for the /current
// route (spec.md §4.5): one DeviceStream per requested device, one
// ComponentStream per non-empty component, Samples/Events/Condition
// wrappers holding the latest value of each data item as of rs.
func CurrentDocument(sender, instanceID string, bufferSize, assetBufferSize, assetCount int,
	b bounds, devices []*schema.Device, reg *schema.Registry, rs *store.ReplayState, filter *schema.ParsedPath) *Element {

	root := El("MTConnectStreams", "xmlns", mtconnectStreamsNS)
	root.Add(buildHeader(headerParams{
		sender: sender, instanceID: instanceID,
		bufferSize: bufferSize, assetBufferSize: assetBufferSize, assetCount: assetCount,
		hasSeq: true, firstSeq: b.first, lastSeq: b.last, nextSeq: b.next,
	}))
	streamsEl := El("Streams")
	for _, d := range devices {
		if ds := currentDeviceStream(d, reg, rs, filter); ds != nil {
			streamsEl.Add(ds)
		}
	}
	root.Add(streamsEl)
	return root
}

func currentDeviceStream(d *schema.Device, reg *schema.Registry, rs *store.ReplayState, filter *schema.ParsedPath) *Element {
	entries, ok := reg.Walk(d.UUID)
	if !ok {
		return nil
	}
	devStream := El("DeviceStream", "name", d.Name, "uuid", d.UUID)
	any := false
	for _, entry := range entries {
		if entry.Empty() {
			continue
		}
		cs := El("ComponentStream", "component", entry.Component.Type, "componentId", entry.Component.ID, "name", entry.Component.Name)
		added := false
		if els := currentElements(d.UUID, entry.Samples, rs, filter, currentValueElement); len(els) > 0 {
			cs.Add(El("Samples").Add(els...))
			added = true
		}
		if els := currentElements(d.UUID, entry.Events, rs, filter, currentValueElement); len(els) > 0 {
			cs.Add(El("Events").Add(els...))
			added = true
		}
		if els := currentConditionElements(d.UUID, entry.Conditions, rs, filter); len(els) > 0 {
			cs.Add(El("Condition").Add(els...))
			added = true
		}
		if added {
			devStream.Add(cs)
			any = true
		}
	}
	if !any {
		return nil
	}
	return devStream
}

func currentElements(uuid string, items []*schema.DataItem, rs *store.ReplayState, filter *schema.ParsedPath, build func(*schema.DataItem, *store.Observation) *Element) []Node {
	var out []Node
	for _, di := range items {
		if !filter.FilterDataItem(di) {
			continue
		}
		obs, ok := rs.Current(uuid, di.ID)
		if !ok {
			continue
		}
		out = append(out, build(di, obs))
	}
	return out
}

func currentValueElement(di *schema.DataItem, obs *store.Observation) *Element {
	return El(di.Type,
		"dataItemId", di.ID, "name", di.Name,
		"sequence", strconv.FormatUint(obs.Sequence, 10),
		"timestamp", formatTimestamp(obs),
	).SetText(obs.Scalar)
}

func currentConditionElements(uuid string, items []*schema.DataItem, rs *store.ReplayState, filter *schema.ParsedPath) []Node {
	var out []Node
	for _, di := range items {
		if !filter.FilterDataItem(di) {
			continue
		}
		active := rs.Conditions(uuid, di.ID)
		if active == nil {
			continue // never observed; omit entirely
		}
		if len(active) == 0 {
			out = append(out, El("Normal", "dataItemId", di.ID, "name", di.Name))
			continue
		}
		for _, obs := range active {
			out = append(out, conditionElement(di, obs))
		}
	}
	return out
}

func conditionElement(di *schema.DataItem, obs store.Observation) *Element {
	return El(levelTag(obs.Condition.Level),
		"dataItemId", di.ID, "name", di.Name,
		"sequence", strconv.FormatUint(obs.Sequence, 10),
		"timestamp", obs.Timestamp.UTC().Format(timestampLayout),
		"nativeCode", obs.Condition.NativeCode,
		"nativeSeverity", obs.Condition.NativeSeverity,
		"qualifier", obs.Condition.Qualifier,
	).SetText(obs.Condition.Message)
}

func levelTag(lvl cmn.ConditionLevel) string {
	switch lvl {
	case cmn.Normal:
		return "Normal"
	case cmn.Warning:
		return "Warning"
	case cmn.Fault:
		return "Fault"
	case cmn.Unavailable:
		return "Unavailable"
	default:
		return string(lvl)
	}
}

func formatTimestamp(obs *store.Observation) string {
	return obs.Timestamp.UTC().Format(timestampLayout)
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// SampleDocument builds an MTConnectStreams document for the /sample route
// (spec.md §4.5): every Observation in [from, to] for the requested
// devices, grouped under the same DeviceStream/ComponentStream/category
// structure as current, but with one element per buffered record instead
// of one per data item.
func SampleDocument(sender, instanceID string, bufferSize, assetBufferSize, assetCount int,
	b bounds, nextSeq uint64, devices []*schema.Device, reg *schema.Registry, obsList []store.Observation, filter *schema.ParsedPath) *Element {

	root := El("MTConnectStreams", "xmlns", mtconnectStreamsNS)
	root.Add(buildHeader(headerParams{
		sender: sender, instanceID: instanceID,
		bufferSize: bufferSize, assetBufferSize: assetBufferSize, assetCount: assetCount,
		hasSeq: true, firstSeq: b.first, lastSeq: b.last, nextSeq: nextSeq,
	}))

	byDevice := make(map[string][]store.Observation, len(devices))
	for _, o := range obsList {
		byDevice[o.UUID] = append(byDevice[o.UUID], o)
	}

	streamsEl := El("Streams")
	for _, d := range devices {
		obs := byDevice[d.UUID]
		if len(obs) == 0 {
			continue
		}
		if ds := sampleDeviceStream(d, reg, obs, filter); ds != nil {
			streamsEl.Add(ds)
		}
	}
	root.Add(streamsEl)
	return root
}

func sampleDeviceStream(d *schema.Device, reg *schema.Registry, obs []store.Observation, filter *schema.ParsedPath) *Element {
	entries, ok := reg.Walk(d.UUID)
	if !ok {
		return nil
	}
	diByID := make(map[string]*schema.DataItem)
	componentOf := make(map[string]*schema.Component)
	order := make([]*schema.Component, 0, len(entries))
	for _, entry := range entries {
		if entry.Empty() {
			continue
		}
		order = append(order, entry.Component)
		for _, di := range entry.Samples {
			diByID[di.ID], componentOf[di.ID] = di, entry.Component
		}
		for _, di := range entry.Events {
			diByID[di.ID], componentOf[di.ID] = di, entry.Component
		}
		for _, di := range entry.Conditions {
			diByID[di.ID], componentOf[di.ID] = di, entry.Component
		}
	}

	type bucket struct{ samples, events, conditions []Node }
	byComponent := make(map[string]*bucket)
	bucketOf := func(id string) *bucket {
		b := byComponent[id]
		if b == nil {
			b = &bucket{}
			byComponent[id] = b
		}
		return b
	}

	for _, o := range obs {
		di, ok := diByID[o.DataItemID]
		if !ok || !filter.FilterDataItem(di) {
			continue
		}
		c := componentOf[o.DataItemID]
		b := bucketOf(c.ID)
		if o.Category == cmn.Condition {
			b.conditions = append(b.conditions, conditionElement(di, o))
			continue
		}
		el := El(di.Type,
			"dataItemId", di.ID, "name", di.Name,
			"sequence", strconv.FormatUint(o.Sequence, 10),
			"timestamp", o.Timestamp.UTC().Format(timestampLayout),
		).SetText(o.Scalar)
		if o.Category == cmn.Sample {
			b.samples = append(b.samples, el)
		} else {
			b.events = append(b.events, el)
		}
	}

	devStream := El("DeviceStream", "name", d.Name, "uuid", d.UUID)
	any := false
	for _, c := range order {
		b := byComponent[c.ID]
		if b == nil {
			continue
		}
		cs := El("ComponentStream", "component", c.Type, "componentId", c.ID, "name", c.Name)
		added := false
		if len(b.samples) > 0 {
			cs.Add(El("Samples").Add(b.samples...))
			added = true
		}
		if len(b.events) > 0 {
			cs.Add(El("Events").Add(b.events...))
			added = true
		}
		if len(b.conditions) > 0 {
			cs.Add(El("Condition").Add(b.conditions...))
			added = true
		}
		if added {
			devStream.Add(cs)
			any = true
		}
	}
	if !any {
		return nil
	}
	return devStream
}

const mtconnectStreamsNS = "urn:mtconnect.org:MTConnectStreams:1.7"
