//go:build debug

// Package debug provides invariant-check helpers that are compiled in only
// under the "debug" build tag — see debug_off.go for the production no-op
// counterparts. In this repository the only caller is the schema
// registry's read-before-init check (schema/index.go); the data store's
// ingest path does not call these helpers.
package debug

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"github.com/golang/glog"
)

const enabled = true

func _panic(a ...interface{}) {
	msg := "DEBUG PANIC: " + fmt.Sprint(a...)
	buffer := bytes.NewBuffer(make([]byte, 0, 1024))
	fmt.Fprint(buffer, msg)
	for i := 2; i < 9; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if !strings.Contains(file, "mtcagent") {
			break
		}
		if buffer.Len() > len(msg) {
			buffer.WriteString(" <- ")
		}
		fmt.Fprintf(buffer, "%s:%d", file, line)
	}
	glog.Errorf("%s", buffer.Bytes())
	glog.Flush()
	panic(msg)
}

func Assert(cond bool, a ...interface{}) {
	if !cond {
		_panic(a...)
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		_panic(fmt.Sprintf(f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		_panic(err)
	}
}

func Errorf(f string, a ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintf("[DEBUG] "+f, a...))
}

func Infof(f string, a ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintf("[DEBUG] "+f, a...))
}

// Enabled reports whether debug assertions are compiled in, so hot paths
// can skip building the arguments to Assert entirely when they are not.
func Enabled() bool { return enabled }
