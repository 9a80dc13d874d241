// Package cmn holds configuration, the error taxonomy, URL-path and query
// constants, and other small types shared by every other package in the
// agent — the same role the teacher's cmn package plays for the cluster.
package cmn

import "time"

// Category enumerates the three kinds of DataItem the device schema can
// describe (spec.md §3).
type Category string

const (
	Event     Category = "EVENT"
	Sample    Category = "SAMPLE"
	Condition Category = "CONDITION"
)

// ConditionLevel enumerates the values a CONDITION observation's level
// field can take (spec.md §3).
type ConditionLevel string

const (
	Normal      ConditionLevel = "NORMAL"
	Warning     ConditionLevel = "WARNING"
	Fault       ConditionLevel = "FAULT"
	Unavailable ConditionLevel = "UNAVAILABLE"
)

// SHDR reserved command keys (spec.md §4.1).
const (
	CmdAsset       = "@ASSET@"
	CmdUpdateAsset = "@UPDATE_ASSET@"
	CmdRemoveAsset = "@REMOVE_ASSET@"
)

// HTTP query parameter names (spec.md §6).
const (
	QueryAt       = "at"
	QueryPath     = "path"
	QueryInterval = "interval"
	QueryFrom     = "from"
	QueryCount    = "count"
	QueryType     = "type"
)

// HTTP route segments (spec.md §6).
const (
	RouteProbe   = "probe"
	RouteCurrent = "current"
	RouteSample  = "sample"
	RouteAsset   = "asset"
	RouteMetrics = "metrics"
)

// DeviceSep separates device names/uuids in a multi-device path segment,
// e.g. "/deviceA;deviceB/current".
const DeviceSep = ";"

// AssetSep separates asset ids in a multi-id asset path segment.
const AssetSep = ";"

// DefaultSampleBufferSize and DefaultAssetBufferSize are the capacities
// spec.md §3 gives as defaults when a config file does not override them.
const (
	DefaultSampleBufferSize = 10
	DefaultAssetBufferSize  = 1024
)

// MaxInterval is the inclusive upper bound on the `interval` query
// parameter per the OUT_OF_RANGE rule in spec.md §7.
const MaxInterval = (1 << 31) - 2

// DefaultReplayCap bounds the cost of a `current?at=` historical replay
// (spec.md §5: "a configurable cap rejects pathological replays").
const DefaultReplayCap = 1_000_000

// MTConnect schema/version constants used in document headers.
const (
	SchemaVersion  = "1.7"
	NamespaceOrg   = "urn:mtconnect.org"
	DefaultSender  = "mtcagent"
	HeartbeatSkew  = 5 * time.Second
)
