package agent

import (
	"sync"
	"time"

	"github.com/mtconnect-oss/mtcagent/schema"
	"github.com/mtconnect-oss/mtcagent/store"
)

// housekeeper implements the heartbeat/availability supplemented feature
// (SPEC_FULL.md's Supplemented Features §2): it periodically checks every
// Adapter Source's last-line time and, once a device has gone silent past
// staleAfter, ingests a synthetic UNAVAILABLE event for that device's
// availability data item. Grounded on the teacher's hk-runner role
// (ais/daemon.go: `daemon.rg.add(hk.DefaultHK)`), reimplemented here as a
// single-purpose ticker since this agent has exactly one periodic
// maintenance task rather than the teacher's pluggable callback registry.
type housekeeper struct {
	reg        *schema.Registry
	data       *store.DataStore
	sources    *sourceRegistry
	staleAfter time.Duration
	stopCh     chan struct{}
	once       sync.Once
}

func newHousekeeper(reg *schema.Registry, data *store.DataStore, sources *sourceRegistry, staleAfter time.Duration) *housekeeper {
	return &housekeeper{reg: reg, data: data, sources: sources, staleAfter: staleAfter, stopCh: make(chan struct{})}
}

func (h *housekeeper) Name() string { return "housekeeper" }

func (h *housekeeper) Run() error {
	interval := h.staleAfter / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.sweep()
		case <-h.stopCh:
			return nil
		}
	}
}

func (h *housekeeper) Stop(err error) {
	h.once.Do(func() { close(h.stopCh) })
}

func (h *housekeeper) sweep() {
	now := time.Now()
	for _, src := range h.sources.All() {
		last := src.LastLine()
		if last.IsZero() || now.Sub(last) <= h.staleAfter {
			continue
		}
		di := availabilityItem(h.reg, src.uuid)
		if di == nil {
			continue
		}
		// Ingest's own duplicate suppression keeps a device that is already
		// marked UNAVAILABLE from re-recording it on every sweep.
		h.data.Ingest(src.uuid, store.Incoming{
			DataItemID: di.ID, Category: di.Category, Timestamp: now, Scalar: "UNAVAILABLE",
		})
	}
}

// availabilityItem finds the data item of type AVAILABILITY for a device,
// the conventional MTConnect data item a housekeeping runner marks
// UNAVAILABLE when its adapter has gone silent.
func availabilityItem(reg *schema.Registry, uuid string) *schema.DataItem {
	entries, ok := reg.Walk(uuid)
	if !ok {
		return nil
	}
	for _, entry := range entries {
		for _, di := range entry.Events {
			if di.Type == "AVAILABILITY" {
				return di
			}
		}
	}
	return nil
}
