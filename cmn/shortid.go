package cmn

import (
	"github.com/teris-io/shortid"
)

// uuidABC mirrors the teacher's custom alphabet for human-readable,
// URL-safe generated ids (cmn/shortid.go).
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var sid *shortid.Shortid

// InitInstanceID seeds the generator once at startup; seed is typically
// derived from the process start time or pid so concurrent agents do not
// collide.
func InitInstanceID(seed uint64) {
	sid = shortid.MustNew(1, uuidABC, seed)
}

// GenInstanceID produces the Header.instanceId MTConnect documents report
// — a value that changes across agent restarts so clients can detect that
// the sequence space reset (spec.md §4.5).
func GenInstanceID() string {
	if sid == nil {
		InitInstanceID(1)
	}
	return sid.MustGenerate()
}
