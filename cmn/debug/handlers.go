package debug

import (
	"expvar"
	"net/http"
	"net/http/pprof"
)

// Handlers returns the pprof/expvar endpoints the HTTP surface mounts
// under /debug/... when config enables them (ported from the teacher's
// cmn/debug.Handlers()). Unlike Assert/Infof, these cost nothing when not
// invoked, so they are available in every build rather than gated by the
// "debug" build tag.
func Handlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/debug/vars":               expvar.Handler().ServeHTTP,
		"/debug/pprof/":             pprof.Index,
		"/debug/pprof/cmdline":      pprof.Cmdline,
		"/debug/pprof/profile":      pprof.Profile,
		"/debug/pprof/symbol":       pprof.Symbol,
		"/debug/pprof/block":        pprof.Handler("block").ServeHTTP,
		"/debug/pprof/heap":         pprof.Handler("heap").ServeHTTP,
		"/debug/pprof/goroutine":    pprof.Handler("goroutine").ServeHTTP,
		"/debug/pprof/threadcreate": pprof.Handler("threadcreate").ServeHTTP,
	}
}
