package response

import (
	"strconv"
	"time"
)

// headerParams collects everything the Header element (spec.md §4.5) can
// carry. bufferSize, assetBufferSize and assetCount are always written,
// zero included (ErrorDocument strips them with noBuffers); the three
// sequence fields are written only when hasSeq is set.
type headerParams struct {
	sender          string
	instanceID      string
	bufferSize      int
	assetBufferSize int
	assetCount      int
	hasSeq          bool
	firstSeq        uint64
	lastSeq         uint64
	nextSeq         uint64
}

func buildHeader(p headerParams) *Element {
	h := El("Header",
		"creationTime", time.Now().UTC().Format(time.RFC3339),
		"sender", p.sender,
		"instanceId", p.instanceID,
		"version", schemaVersion,
		"bufferSize", strconv.Itoa(p.bufferSize),
		"assetBufferSize", strconv.Itoa(p.assetBufferSize),
		"assetCount", strconv.Itoa(p.assetCount),
	)
	if p.hasSeq {
		h.SetAttr("firstSequence", strconv.FormatUint(p.firstSeq, 10))
		h.SetAttr("lastSequence", strconv.FormatUint(p.lastSeq, 10))
		h.SetAttr("nextSequence", strconv.FormatUint(p.nextSeq, 10))
	}
	return h
}

const schemaVersion = "1.7"
