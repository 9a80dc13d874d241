// Package shdr implements the SHDR (Simple Hierarchical Data
// Representation) line parser: spec.md §4.1, the sole entry point for
// adapter telemetry into the agent.
package shdr

import (
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

// Observation is one (key, value) pair parsed out of an SHDR line. Key is
// the literal token from the line — a data-item name or id, echoed back
// unresolved; resolving it to a schema DataItem is done by the ingest
// call site (agent.applyLine, spec.md §4.3 step 1), not by the parser.
//
// Tokens holds the value: length 1 for EVENT/SAMPLE, length 5
// (level, nativeCode, nativeSeverity, qualifier, message) for CONDITION.
type Observation struct {
	Key    string
	Tokens []string
}

// Scalar returns the single-token value of an EVENT/SAMPLE observation.
// Callers must check len(Tokens) == 1 (or Category) before calling this;
// it panics on a condition observation to catch a caller bug early,
// matching the "fail loud in our own code, fail quiet on bad input" split
// the teacher draws between debug.Assert and logged-and-dropped errors.
func (o Observation) Scalar() string {
	if len(o.Tokens) != 1 {
		panic("shdr: Scalar called on a multi-token observation")
	}
	return o.Tokens[0]
}

// AssetCmd is one of the three asset-management commands spec.md §4.1
// recognizes embedded in an SHDR line.
type AssetCmd struct {
	Kind      string // cmn.CmdAsset | cmn.CmdUpdateAsset | cmn.CmdRemoveAsset
	AssetID   string
	AssetType string // @ASSET@ only
	XML       string // @ASSET@ only
	KVs       []KV   // @UPDATE_ASSET@ only, in line order
}

type KV struct{ Key, Value string }

// Line is the parsed form of one SHDR line (spec.md §4.1 "Output").
type Line struct {
	Time      time.Time
	RawTime   string
	DataItems []Observation
	Assets    []AssetCmd
}

// CategoryOf resolves a key (data-item name or id) to its schema category,
// so the parser knows how many pipe-delimited tokens the value spans.
// Implemented by the Schema Index at the ingest call site.
type CategoryOf func(key string) (cmn.Category, bool)

// timeLayouts covers the timestamp precisions spec.md §4.1 requires:
// microseconds, milliseconds, and bare seconds. Adapters normally send
// UTC with a trailing "Z" (e.g. "2014-08-11T08:32:54.028533Z"), but
// spec.md §8's own worked example ("2016-04-12T20:27:01.0530") omits it;
// both forms are accepted and treated as UTC.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.999Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05.999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if !strings.HasSuffix(layout, "Z") {
				t = t.UTC()
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// Parse parses one SHDR line for the given device uuid. It returns
// (nil, false) for a line the parser must discard outright (malformed
// timestamp, or a truncated declaration that leaves a key without enough
// tokens) — both failures are logged here, per spec.md §4.1: "The parser
// never throws across the ingest boundary." An unknown key does not
// discard the line; it is skipped and logging continues with the next
// key, consuming exactly the tokens the line grammar allows it to assume
// (one, as if it were EVENT/SAMPLE) since its true arity is unknowable.
func Parse(uuid, line string, categoryOf CategoryOf) (*Line, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < 3 {
		glog.Warningf("shdr(%s): truncated line, too few fields: %q", uuid, line)
		return nil, false
	}
	ts, ok := parseTimestamp(fields[0])
	if !ok {
		glog.Warningf("shdr(%s): malformed timestamp %q, discarding line", uuid, fields[0])
		return nil, false
	}
	out := &Line{Time: ts, RawTime: fields[0]}
	rest := fields[1:]

	for i := 0; i < len(rest); {
		key := rest[i]
		i++

		switch key {
		case cmn.CmdAsset:
			if i+2 >= len(rest) {
				glog.Warningf("shdr(%s): truncated %s command: %q", uuid, key, line)
				return nil, false
			}
			assetID, assetType := rest[i], rest[i+1]
			xmlBlob := strings.Join(rest[i+2:], "|")
			out.Assets = append(out.Assets, AssetCmd{
				Kind: cmn.CmdAsset, AssetID: assetID, AssetType: assetType, XML: xmlBlob,
			})
			i = len(rest)
		case cmn.CmdUpdateAsset:
			if i >= len(rest) {
				glog.Warningf("shdr(%s): truncated %s command: %q", uuid, key, line)
				return nil, false
			}
			assetID := rest[i]
			i++
			remaining := rest[i:]
			if len(remaining)%2 != 0 {
				glog.Warningf("shdr(%s): %s has an odd number of key/value tokens: %q", uuid, key, line)
				return nil, false
			}
			cmd := AssetCmd{Kind: cmn.CmdUpdateAsset, AssetID: assetID}
			for j := 0; j < len(remaining); j += 2 {
				cmd.KVs = append(cmd.KVs, KV{Key: remaining[j], Value: remaining[j+1]})
			}
			out.Assets = append(out.Assets, cmd)
			i = len(rest)
		case cmn.CmdRemoveAsset:
			if i >= len(rest) {
				glog.Warningf("shdr(%s): truncated %s command: %q", uuid, key, line)
				return nil, false
			}
			out.Assets = append(out.Assets, AssetCmd{Kind: cmn.CmdRemoveAsset, AssetID: rest[i]})
			i++
		default:
			cat, known := categoryOf(key)
			if !known {
				glog.Warningf("shdr(%s): unknown key %q, skipping", uuid, key)
				if i >= len(rest) {
					// nothing left to treat as this key's value; line ends here
					return out, true
				}
				i++ // best-effort: skip one token as the unresolvable value
				continue
			}
			arity := 1
			if cat == cmn.Condition {
				arity = 5
			}
			if i+arity > len(rest) {
				glog.Warningf("shdr(%s): truncated value for key %q (need %d tokens): %q", uuid, key, arity, line)
				return nil, false
			}
			tokens := make([]string, arity)
			copy(tokens, rest[i:i+arity])
			out.DataItems = append(out.DataItems, Observation{Key: key, Tokens: tokens})
			i += arity
		}
	}
	return out, true
}
