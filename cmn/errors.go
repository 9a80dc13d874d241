package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCode is the closed set of errorCode values an MTConnectError document
// can carry (spec.md §7).
type ErrCode string

const (
	ErrNoDevice      ErrCode = "NO_DEVICE"
	ErrAssetNotFound ErrCode = "ASSET_NOT_FOUND"
	ErrOutOfRange    ErrCode = "OUT_OF_RANGE"
	ErrInvalidXPath  ErrCode = "INVALID_XPATH"
	ErrUnsupported   ErrCode = "UNSUPPORTED"
	ErrInvalidReq    ErrCode = "INVALID_REQUEST"
)

// QueryError is one entry of an MTConnectError document. Query failures
// never panic or propagate as Go errors past the assembler boundary —
// they're converted to one or more QueryErrors and folded into the error
// document (spec.md §7).
type QueryError struct {
	Code ErrCode
	Msg  string
}

func (e *QueryError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Msg) }

func NewQueryError(code ErrCode, format string, a ...interface{}) *QueryError {
	return &QueryError{Code: code, Msg: fmt.Sprintf(format, a...)}
}

// ErrStartupTimeout names the failure of the agent to reach a serving
// state before a startup deadline, after the teacher's cmn.ErrStartupTimeout.
// The run-group has no startup deadline: neither it nor Run() (agent
// package) returns or checks this error.
var ErrStartupTimeout = errors.New("timed out waiting for agent to start")

// WrapStartup wraps a fatal startup error with context, using pkg/errors so
// formatting the result with %+v prints the original call stack alongside
// whichever layer added the wrapping message (the daemon's startup path
// logs with %v, which prints the messages only) — matching the
// error-wrapping style the teacher uses in ais/prxtxn.go and reb/ec.go.
// A nil err yields nil.
func WrapStartup(err error, context string) error {
	return errors.Wrap(err, context)
}
