package shdr

import (
	"bufio"
	"io"
)

// TaggedLine is one raw line read off an adapter connection, tagged with
// the uuid of the device it came from — the shape the ingest loop
// consumes (SPEC_FULL.md's Adapter Source module).
type TaggedLine struct {
	UUID string
	Text string
}

// Scan reads newline-terminated SHDR text from r and sends one TaggedLine
// per line to out, tagged with uuid, until r is exhausted or ctx-like
// cancellation closes r out from under the scanner. It does not parse —
// it only frames bytes into lines, keeping line-framing (a transport
// concern spec.md §1 scopes out of the core) separate from Parse.
func Scan(uuid string, r io.Reader, out chan<- TaggedLine) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		out <- TaggedLine{UUID: uuid, Text: sc.Text()}
	}
	return sc.Err()
}
