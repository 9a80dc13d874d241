package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/cmn/debug"
	"github.com/mtconnect-oss/mtcagent/response"
	"github.com/mtconnect-oss/mtcagent/schema"
	"github.com/mtconnect-oss/mtcagent/stats"
	"github.com/mtconnect-oss/mtcagent/store"
)

// server is the HTTP Surface (spec.md §6): one cos.Runner wrapping a
// stdlib http.Server with hand-rolled dispatch, the same shape the
// teacher gives its httprunner — no external router dependency.
type server struct {
	httpServer *http.Server
	reg        *schema.Registry
	assembler  *response.Assembler
	metrics    *stats.Metrics
	assets     *store.AssetStore
	data       *store.DataStore
}

func newServer(config *cmn.Config, reg *schema.Registry, assembler *response.Assembler, metrics *stats.Metrics, assets *store.AssetStore, data *store.DataStore) *server {
	s := &server{reg: reg, assembler: assembler, metrics: metrics, assets: assets, data: data}
	mux := http.NewServeMux()
	mux.Handle("/"+cmn.RouteMetrics, metrics.Handler())
	if config.Log.Debug {
		for path, handler := range debug.Handlers() {
			mux.HandleFunc(path, handler)
		}
	}
	mux.HandleFunc("/", s.handleMTConnect)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Net.Port),
		Handler:      mux,
		ReadTimeout:  config.Net.ReadTimeout,
		WriteTimeout: config.Net.WriteTimeout,
	}
	return s
}

func (s *server) Name() string { return "http" }

func (s *server) Run() error {
	glog.Infof("http listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *server) Stop(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
		glog.Warningf("http: shutdown: %v", shutdownErr)
	}
}
