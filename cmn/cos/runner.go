// Package cos holds small low-level helpers shared by every other package:
// the run-group contract, fatal-startup helpers, and a handful of
// assertions that do not belong in any one domain package.
package cos

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

// Runner is satisfied by every long-lived goroutine the daemon starts:
// the HTTP server, each adapter's ingest loop, the housekeeping ticker,
// the stats reporter. Run blocks until the runner stops on its own or is
// asked to via Stop; its return value is delivered to the run-group.
type Runner interface {
	Run() error
	Stop(err error)
	Name() string
}

// Exitf prints to stderr and terminates immediately, without going through
// glog (used before logging is initialized, e.g. bad usage).
func Exitf(f string, a ...interface{}) {
	if len(a) == 0 {
		fmt.Fprintln(os.Stderr, f)
	} else {
		fmt.Fprintf(os.Stderr, f+"\n", a...)
	}
	os.Exit(1)
}

// ExitLogf logs a fatal error via glog (so it lands wherever glog is
// configured to write) and then exits non-zero. Used for unrecoverable
// startup conditions per the error taxonomy's "fatal" rule: only startup
// failures terminate the process.
func ExitLogf(f string, a ...interface{}) {
	glog.Errorf(f, a...)
	glog.Flush()
	os.Exit(1)
}

// Assert panics with the given context when cond is false. Reserved for
// invariants that must never be false regardless of build mode (see
// cmn/debug for invariants that are checked only in debug builds).
func Assert(cond bool, a ...interface{}) {
	if !cond {
		panic(fmt.Sprint(a...))
	}
}

func AssertMsg(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
