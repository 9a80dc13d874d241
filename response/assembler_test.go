package response

import (
	"context"
	"testing"
	"time"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/schema"
	"github.com/mtconnect-oss/mtcagent/store"
)

func testDevice() *schema.Device {
	return &schema.Device{
		UUID: "000", Name: "VMC-3Axis",
		Root: &schema.Component{
			ID: "dev", Name: "VMC-3Axis", Type: "Device",
			DataItems: []*schema.DataItem{
				{ID: "avail", Name: "avail", Type: "AVAILABILITY", Category: cmn.Event},
				{ID: "htemp", Name: "htemp", Type: "TEMPERATURE_CONDITION", Category: cmn.Condition},
			},
		},
	}
}

func newTestAssembler(t *testing.T) (*Assembler, *store.DataStore) {
	t.Helper()
	reg := schema.NewRegistry()
	if !reg.Register(testDevice()) {
		t.Fatal("failed to register test device")
	}
	ds := store.NewDataStore(10, 10)
	as := store.NewAssetStore(10)
	return NewAssembler(reg, ds, as, "agent.example.com", "1", 10, 10), ds
}

// findAll collects every descendant (including n itself) whose tag matches
// name, depth-first.
func findAll(n Node, name string) []*Element {
	var out []*Element
	var walk func(Node)
	walk = func(n Node) {
		el, ok := n.(*Element)
		if !ok {
			return
		}
		if el.Name == name {
			out = append(out, el)
		}
		for _, c := range el.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(e *Element, name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func TestAssembleProbe(t *testing.T) {
	a, _ := newTestAssembler(t)
	doc := a.Assemble(Query{Kind: KindProbe})
	if doc.Name != "MTConnectDevices" {
		t.Fatalf("root = %q, want MTConnectDevices", doc.Name)
	}
	devices := findAll(doc, "Device")
	if len(devices) != 1 {
		t.Fatalf("found %d Device elements, want 1", len(devices))
	}
	if name, _ := attr(devices[0], "name"); name != "VMC-3Axis" {
		t.Errorf("Device name = %q", name)
	}
}

func TestAssembleUnknownDeviceYieldsSingleError(t *testing.T) {
	a, _ := newTestAssembler(t)
	doc := a.Assemble(Query{Kind: KindProbe, DeviceTokens: []string{"no-such-device"}})
	if doc.Name != "MTConnectError" {
		t.Fatalf("root = %q, want MTConnectError", doc.Name)
	}
	errs := findAll(doc, "Error")
	if len(errs) != 1 {
		t.Fatalf("got %d Error elements, want exactly 1 (existence errors do not accumulate)", len(errs))
	}
	if code, _ := attr(errs[0], "errorCode"); code != string(cmn.ErrNoDevice) {
		t.Errorf("errorCode = %q, want %q", code, cmn.ErrNoDevice)
	}
}

func TestAssembleCurrentAfterIngest(t *testing.T) {
	a, ds := newTestAssembler(t)
	ds.Ingest("000", store.Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: time.Now(), Scalar: "AVAILABLE"})

	doc := a.Assemble(Query{Kind: KindCurrent})
	if doc.Name != "MTConnectStreams" {
		t.Fatalf("root = %q, want MTConnectStreams", doc.Name)
	}
	items := findAll(doc, "AVAILABILITY")
	if len(items) != 1 {
		t.Fatalf("got %d AVAILABILITY elements, want 1", len(items))
	}
}

func TestAssembleCurrentAtAndIntervalMutuallyExclusive(t *testing.T) {
	a, _ := newTestAssembler(t)
	at := uint64(1)
	interval := 1000
	doc := a.Assemble(Query{Kind: KindCurrent, At: &at, Interval: &interval})
	if doc.Name != "MTConnectError" {
		t.Fatalf("root = %q, want MTConnectError", doc.Name)
	}
	errs := findAll(doc, "Error")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if code, _ := attr(errs[0], "errorCode"); code != string(cmn.ErrInvalidReq) {
		t.Errorf("errorCode = %q, want %q", code, cmn.ErrInvalidReq)
	}
}

func TestAssembleParamAndPathErrorsAccumulate(t *testing.T) {
	a, _ := newTestAssembler(t)
	count := 0
	q := Query{
		Kind:  KindSample,
		Path:  "not an xpath",
		Count: &count,
	}
	q.ParamErrors = []*cmn.QueryError{cmn.NewQueryError(cmn.ErrInvalidReq, "bad count param")}
	doc := a.Assemble(q)
	if doc.Name != "MTConnectError" {
		t.Fatalf("root = %q, want MTConnectError", doc.Name)
	}
	errs := findAll(doc, "Error")
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2 (param error + invalid xpath accumulate)", len(errs))
	}
}

func TestAssembleAssetNotFoundAccumulates(t *testing.T) {
	a, _ := newTestAssembler(t)
	doc := a.Assemble(Query{Kind: KindAsset, AssetIDs: []string{"A1", "A2"}})
	if doc.Name != "MTConnectError" {
		t.Fatalf("root = %q, want MTConnectError", doc.Name)
	}
	errs := findAll(doc, "Error")
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2 (one per missing asset id)", len(errs))
	}
}

func TestStreamCurrentEmitsUntilContextCancelled(t *testing.T) {
	a, _ := newTestAssembler(t)
	devices := a.Registry.Devices()
	ctx, cancel := context.WithCancel(context.Background())

	var n int
	err := a.StreamCurrent(ctx, devices, nil, time.Millisecond, func(doc *Element) error {
		n++
		if n == 3 {
			cancel()
		}
		return nil
	})
	if err != context.Canceled {
		t.Fatalf("got err=%v, want context.Canceled", err)
	}
	if n < 3 {
		t.Fatalf("emit called %d times, want at least 3", n)
	}
}

func TestStreamSampleEmitsUntilContextCancelled(t *testing.T) {
	a, ds := newTestAssembler(t)
	devices := a.Registry.Devices()
	ds.Ingest("000", store.Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: time.Now(), Scalar: "AVAILABLE"})

	ctx, cancel := context.WithCancel(context.Background())
	var names []string
	err := a.StreamSample(ctx, Query{Kind: KindSample}, devices, nil, time.Millisecond, func(doc *Element) error {
		names = append(names, doc.Name)
		if len(names) == 2 {
			cancel()
		}
		return nil
	})
	if err != context.Canceled {
		t.Fatalf("got err=%v, want context.Canceled", err)
	}
	if len(names) < 2 {
		t.Fatalf("emit called %d times, want at least 2", len(names))
	}
}
