package response

import (
	"context"
	"time"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/schema"
	"github.com/mtconnect-oss/mtcagent/store"
)

// QueryKind selects which MTConnect document a Query assembles.
type QueryKind int

const (
	KindProbe QueryKind = iota
	KindCurrent
	KindSample
	KindAsset
)

// Query is the parsed form of an HTTP request's path/query parameters
// (spec.md §6), independent of how the agent package decodes the URL.
type Query struct {
	Kind         QueryKind
	DeviceTokens []string // device names or uuids, from the path; empty means every device
	Path         string   // raw xpath expression; "" means no filter
	At           *uint64
	From         *uint64
	Count        *int
	Interval     *int // milliseconds; nil means a single response, not a stream
	AssetIDs     []string
	AssetType    string

	// ParamErrors carries malformed-query-parameter errors the HTTP layer
	// already detected (e.g. a non-numeric "count"), so they accumulate
	// alongside path/interval validation errors instead of being reported
	// in isolation (spec.md §7's parameter-validation multi-error rule).
	ParamErrors []*cmn.QueryError
}

// Assembler is the Response Assembler (spec.md §4.5): it folds the Schema
// Index, Data Store, and Asset Store into MTConnect documents. BufferSize
// and AssetBufferSize are captured once at construction since the agent
// never resizes either buffer at runtime.
type Assembler struct {
	Registry        *schema.Registry
	Data            *store.DataStore
	Assets          *store.AssetStore
	Sender          string
	InstanceID      string
	BufferSize      int
	AssetBufferSize int
}

func NewAssembler(reg *schema.Registry, ds *store.DataStore, as *store.AssetStore, sender, instanceID string, bufferSize, assetBufferSize int) *Assembler {
	return &Assembler{
		Registry: reg, Data: ds, Assets: as,
		Sender: sender, InstanceID: instanceID,
		BufferSize: bufferSize, AssetBufferSize: assetBufferSize,
	}
}

// Assemble runs validation and dispatches to the matching document
// builder, returning an MTConnectError document in place of any result
// once validation fails (spec.md §7: query failures never propagate past
// this boundary as Go errors).
func (a *Assembler) Assemble(q Query) *Element {
	devices, filter, errs := a.Validate(q)
	if len(errs) > 0 {
		return a.errDoc(errs)
	}

	switch q.Kind {
	case KindProbe:
		return Probe(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(), devices)
	case KindCurrent:
		return a.assembleCurrent(q, devices, filter)
	case KindSample:
		return a.assembleSample(q, devices, filter)
	case KindAsset:
		return a.assembleAsset(q)
	default:
		return a.errDoc([]*cmn.QueryError{cmn.NewQueryError(cmn.ErrInvalidReq, "unrecognized query kind")})
	}
}

// Validate resolves q's device tokens and path filter, applying spec.md
// §7's error rules: device resolution failures are a single error that
// short-circuits everything else; parameter and path-validation errors
// accumulate. It is exported so the HTTP layer can run the same
// validation ahead of an interval stream, which needs the resolved device
// list and filter on every tick without re-validating them each time.
func (a *Assembler) Validate(q Query) (devices []*schema.Device, filter *schema.ParsedPath, errs []*cmn.QueryError) {
	devices, errs = a.resolveDevices(q.DeviceTokens)
	if errs != nil {
		return nil, nil, errs
	}
	errs = append(errs, q.ParamErrors...)
	if q.Kind != KindAsset && q.Path != "" {
		p, err := schema.ParsePath(q.Path)
		if err != nil {
			errs = append(errs, err.(*cmn.QueryError))
		} else if !a.Registry.PathValidation(p, uuidsOf(devices)) {
			errs = append(errs, cmn.NewQueryError(cmn.ErrUnsupported, "path %q matches no data item on the requested device(s)", q.Path))
		} else {
			filter = p
		}
	}
	if len(errs) > 0 {
		return devices, filter, errs
	}
	return devices, filter, nil
}

// ErrDoc renders errs as an MTConnectError document using this
// assembler's sender/instanceID, for callers (e.g. a stream's first tick)
// that validate ahead of calling Assemble.
func (a *Assembler) ErrDoc(errs []*cmn.QueryError) *Element { return a.errDoc(errs) }

// resolveDevices implements the existence-error rule of spec.md §7: a
// device name/uuid that does not resolve is a single NO_DEVICE error that
// terminates validation immediately, never accumulated alongside other
// problems.
func (a *Assembler) resolveDevices(tokens []string) ([]*schema.Device, []*cmn.QueryError) {
	if len(tokens) == 0 {
		return a.Registry.Devices(), nil
	}
	out := make([]*schema.Device, 0, len(tokens))
	for _, tok := range tokens {
		if dev, ok := a.Registry.Device(tok); ok {
			out = append(out, dev)
			continue
		}
		if uuid, ok := a.Registry.DeviceUUID(tok); ok {
			if dev, ok := a.Registry.Device(uuid); ok {
				out = append(out, dev)
				continue
			}
		}
		return nil, []*cmn.QueryError{cmn.NewQueryError(cmn.ErrNoDevice, "no device matches %q", tok)}
	}
	return out, nil
}

func uuidsOf(devices []*schema.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.UUID
	}
	return out
}

func (a *Assembler) errDoc(errs []*cmn.QueryError) *Element {
	return ErrorDocument(a.Sender, a.InstanceID, errs)
}

func (a *Assembler) liveBounds() bounds {
	first, last, next := a.Data.Bounds()
	return bounds{first: first, last: last, next: next}
}

func (a *Assembler) assembleCurrent(q Query, devices []*schema.Device, filter *schema.ParsedPath) *Element {
	if q.At != nil && q.Interval != nil {
		return a.errDoc([]*cmn.QueryError{cmn.NewQueryError(cmn.ErrInvalidReq, "at and interval are mutually exclusive")})
	}
	rs, err := a.Data.CurrentAt(q.At)
	if err != nil {
		return a.errDoc([]*cmn.QueryError{err.(*cmn.QueryError)})
	}
	return CurrentDocument(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(),
		a.liveBounds(), devices, a.Registry, rs, filter)
}

// sampleArgs resolves the effective (from, count) pair for a sample query:
// from defaults to the store's current firstSequence, count defaults to
// the configured sample buffer size.
func (a *Assembler) sampleArgs(q Query) (from uint64, count int) {
	first, _, _ := a.Data.Bounds()
	from = first
	if q.From != nil {
		from = *q.From
	}
	count = a.BufferSize
	if q.Count != nil {
		count = *q.Count
	}
	return from, count
}

func (a *Assembler) assembleSample(q Query, devices []*schema.Device, filter *schema.ParsedPath) *Element {
	from, count := a.sampleArgs(q)
	res, err := a.Data.Sample(from, count)
	if err != nil {
		return a.errDoc([]*cmn.QueryError{err.(*cmn.QueryError)})
	}
	return SampleDocument(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(),
		a.liveBounds(), res.NextSequence, devices, a.Registry, res.Observations, filter)
}

func (a *Assembler) assembleAsset(q Query) *Element {
	if len(q.AssetIDs) > 0 {
		assets := make([]*store.Asset, 0, len(q.AssetIDs))
		var missing []*cmn.QueryError
		for _, id := range q.AssetIDs {
			if asset, ok := a.Assets.Current(id); ok {
				assets = append(assets, asset)
			} else {
				missing = append(missing, cmn.NewQueryError(cmn.ErrAssetNotFound, "asset %q not found", id))
			}
		}
		if len(missing) > 0 {
			return a.errDoc(missing)
		}
		return AssetDocument(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(), assets)
	}
	assets := a.Assets.List(q.AssetType, 0)
	return AssetDocument(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(), assets)
}

// StreamCurrent drives the interval-based multipart /current stream
// (spec.md §4.5, §6): one live snapshot document per tick until ctx is
// cancelled.
func (a *Assembler) StreamCurrent(ctx context.Context, devices []*schema.Device, filter *schema.ParsedPath, interval time.Duration, emit func(*Element) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		rs, _ := a.Data.CurrentAt(nil) // at=nil never errors
		doc := CurrentDocument(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(),
			a.liveBounds(), devices, a.Registry, rs, filter)
		if err := emit(doc); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StreamSample drives the interval-based multipart /sample stream
// (spec.md §4.5, §6): it emits one document immediately, then one more
// per tick of interval until ctx is cancelled (the HTTP layer cancels its
// request context on client disconnect), each covering the observations
// ingested since the previous tick's nextSequence. emit's error, if any,
// stops the stream.
func (a *Assembler) StreamSample(ctx context.Context, q Query, devices []*schema.Device, filter *schema.ParsedPath, interval time.Duration, emit func(*Element) error) error {
	from, count := a.sampleArgs(q)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := a.Data.Sample(from, count)
		var doc *Element
		if err != nil {
			doc = a.errDoc([]*cmn.QueryError{err.(*cmn.QueryError)})
		} else {
			doc = SampleDocument(a.Sender, a.InstanceID, a.BufferSize, a.AssetBufferSize, a.Assets.Count(),
				a.liveBounds(), res.NextSequence, devices, a.Registry, res.Observations, filter)
			from = res.NextSequence
		}
		if err := emit(doc); err != nil {
			return err
		}
		if err != nil {
			return nil // a surfaced error document ends the stream too
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
