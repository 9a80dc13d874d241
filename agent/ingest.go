package agent

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/golang/glog"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/shdr"
	"github.com/mtconnect-oss/mtcagent/store"
)

// sourceRegistry tracks every Adapter Source the agent has started, so the
// housekeeping runner can poll each one's last-line time without a second
// bookkeeping structure.
type sourceRegistry struct {
	mu  sync.RWMutex
	all map[string]*adapterSource // by uuid
}

func newSourceRegistry() *sourceRegistry { return &sourceRegistry{all: make(map[string]*adapterSource)} }

func (r *sourceRegistry) add(s *adapterSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all[s.uuid] = s
}

func (r *sourceRegistry) All() []*adapterSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*adapterSource, 0, len(r.all))
	for _, s := range r.all {
		out = append(out, s)
	}
	return out
}

// adapterSource is the Adapter Source module SPEC_FULL.md adds: a TCP
// client that dials one device's SHDR feed, reconnecting with backoff, and
// feeds every received line into the ingest pipeline. It implements
// cos.Runner so the daemon's rungroup starts and stops it like every
// other long-lived goroutine.
type adapterSource struct {
	uuid     string
	addr     string
	lastLine atomic.Int64 // UnixNano of the last line received, 0 before the first
	cancel   context.CancelFunc
}

func newAdapterSource(uuid, host string, port int) *adapterSource {
	return &adapterSource{uuid: uuid, addr: fmt.Sprintf("%s:%d", host, port)}
}

func (s *adapterSource) Name() string { return "adapter-" + s.uuid }

func (s *adapterSource) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := s.connectAndPump(ctx); err != nil {
			glog.Warningf("adapter(%s): %v, retrying %s in %s", s.uuid, err, s.addr, backoff)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// connectAndPump dials once, then fans in a line-scanning goroutine and a
// line-processing goroutine via errgroup so either a scan error or a
// context cancellation tears both down together — the bounded concurrency
// pattern SPEC_FULL.md's Domain Stack grounds on the teacher's
// fs/mpather/jogger.go use of errgroup for per-worker fan-in.
func (s *adapterSource) connectAndPump(ctx context.Context) error {
	conn, err := net.DialTimeout("tcp", s.addr, 10*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	lines := make(chan shdr.TaggedLine, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(lines)
		return shdr.Scan(s.uuid, conn, lines)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case tl, ok := <-lines:
				if !ok {
					return nil
				}
				s.lastLine.Store(time.Now().UnixNano())
				applyLine(tl)
			}
		}
	})
	return g.Wait()
}

func (s *adapterSource) Stop(err error) {
	if s.cancel != nil {
		s.cancel()
	}
}

// LastLine returns the time the most recent SHDR line was received, or the
// zero Time if none has been yet.
func (s *adapterSource) LastLine() time.Time {
	ns := s.lastLine.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// applyLine parses one raw line and applies every resulting observation
// and asset command to the store, resolving keys via the Schema Index
// (spec.md §4.3 step 1) one layer above the store itself.
func applyLine(tl shdr.TaggedLine) {
	line, ok := shdr.Parse(tl.UUID, tl.Text, func(key string) (cmn.Category, bool) {
		di, ok := daemon.reg.DataItem(tl.UUID, key)
		if !ok {
			return "", false
		}
		return di.Category, true
	})
	if !ok {
		daemon.metrics.LinesDiscarded.WithLabelValues("parse_error").Inc()
		return
	}

	for _, obs := range line.DataItems {
		di, ok := daemon.reg.DataItem(tl.UUID, obs.Key)
		if !ok {
			glog.Warningf("ingest(%s): unknown data item %q, discarding", tl.UUID, obs.Key)
			daemon.metrics.LinesDiscarded.WithLabelValues("unknown_item").Inc()
			continue
		}
		in := store.Incoming{DataItemID: di.ID, Category: di.Category, Timestamp: line.Time}
		if di.Category == cmn.Condition {
			in.Condition = store.ConditionValue{
				Level:          cmn.ConditionLevel(obs.Tokens[0]),
				NativeCode:     obs.Tokens[1],
				NativeSeverity: obs.Tokens[2],
				Qualifier:      obs.Tokens[3],
				Message:        obs.Tokens[4],
			}
		} else {
			in.Scalar = obs.Scalar()
		}
		if _, applied := daemon.data.Ingest(tl.UUID, in); applied {
			daemon.metrics.ObservationsIngested.WithLabelValues(string(di.Category)).Inc()
		} else {
			daemon.metrics.DuplicatesSuppressed.Inc()
		}
	}

	for _, cmd := range line.Assets {
		applyAssetCmd(tl.UUID, cmd, line.Time)
	}
}

func applyAssetCmd(uuid string, cmd shdr.AssetCmd, ts time.Time) {
	switch cmd.Kind {
	case cmn.CmdAsset:
		daemon.assets.Upsert(uuid, cmd.AssetID, cmd.AssetType, cmd.XML, ts)
		daemon.metrics.AssetsMutated.WithLabelValues("upsert").Inc()
	case cmn.CmdUpdateAsset:
		kvs := make([]store.KV, len(cmd.KVs))
		for i, kv := range cmd.KVs {
			kvs[i] = store.KV{Key: kv.Key, Value: kv.Value}
		}
		daemon.assets.Update(uuid, cmd.AssetID, kvs, ts)
		daemon.metrics.AssetsMutated.WithLabelValues("update").Inc()
	case cmn.CmdRemoveAsset:
		daemon.assets.Remove(uuid, cmd.AssetID, ts)
		daemon.metrics.AssetsMutated.WithLabelValues("remove").Inc()
	}
}
