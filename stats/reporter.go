package stats

import (
	"sync"
	"time"

	"github.com/golang/glog"
	dto "github.com/prometheus/client_model/go"
)

// occupancySource is satisfied by store.DataStore/store.AssetStore without
// Reporter importing package store directly, keeping the dependency
// one-directional (stats reads domain state; domain state never reads
// stats) the way the teacher keeps stats decoupled from cluster/fs state.
type occupancySource interface {
	Bounds() (first, last, next uint64)
}

type assetOccupancySource interface {
	Count() int
}

// Reporter periodically logs every gathered metric, one line each, playing the same
// role as the teacher's statslogger.log() (stats/proxy_stats.go) but
// gathering from the prometheus registry instead of a hand-rolled
// statsTracker. It implements cos.Runner so the daemon's run-group starts
// and stops it like every other long-lived goroutine.
type Reporter struct {
	metrics  *Metrics
	data     occupancySource
	assets   assetOccupancySource
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
}

func NewReporter(m *Metrics, data occupancySource, assets assetOccupancySource, interval time.Duration) *Reporter {
	return &Reporter{metrics: m, data: data, assets: assets, interval: interval, stopCh: make(chan struct{})}
}

func (r *Reporter) Name() string { return "stats-reporter" }

func (r *Reporter) Run() error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.log()
		case <-r.stopCh:
			return nil
		}
	}
}

func (r *Reporter) Stop(err error) {
	r.once.Do(func() { close(r.stopCh) })
	if err != nil {
		glog.Warningf("stats-reporter: stopped with error: %v", err)
	}
}

func (r *Reporter) log() {
	if r.data != nil {
		first, last, _ := r.data.Bounds()
		occ := 0
		if last >= first {
			occ = int(last - first + 1)
		}
		r.metrics.BufferOccupancy.Set(float64(occ))
	}
	if r.assets != nil {
		r.metrics.AssetBufferOccupancy.Set(float64(r.assets.Count()))
	}

	families, err := r.metrics.Registry.Gather()
	if err != nil {
		glog.Warningf("stats-reporter: gather failed: %v", err)
		return
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				glog.Infof("stat %s%s = %.0f", fam.GetName(), labelSuffix(m.GetLabel()), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				glog.Infof("stat %s%s = %.0f", fam.GetName(), labelSuffix(m.GetLabel()), m.GetGauge().GetValue())
			}
		}
	}
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	s := "{"
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l.GetName() + "=" + l.GetValue()
	}
	return s + "}"
}
