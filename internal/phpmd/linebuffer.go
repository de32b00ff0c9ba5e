package phpmd

import "strings"

// LineBuffer reassembles report lines from stdout chunks of one run.
// Between calls it only holds data that has no newline yet, except
// after a malformed line: the complete lines that followed it stay
// buffered and are consumed by the next Feed.
type LineBuffer struct {
	pending string
	diags   []Diagnostic
}

// Feed appends a chunk and parses every complete line it can.
// A malformed non-empty line ends parsing for this chunk.
func (b *LineBuffer) Feed(chunk []byte) {
	b.pending += string(chunk)
	for {
		idx := strings.IndexByte(b.pending, '\n')
		if idx < 0 {
			return
		}
		line := b.pending[:idx]
		b.pending = b.pending[idx+1:]
		if line == "" {
			continue
		}
		d, ok := ParseLine(line)
		if !ok {
			return
		}
		b.diags = append(b.diags, d)
	}
}

// Flush handles whatever is still buffered once the stream has ended.
// A trailing line without a newline is parsed. Complete lines left over
// after a malformed line stay unparsed, as they would without Flush.
func (b *LineBuffer) Flush() {
	rest := b.pending
	b.pending = ""
	if rest == "" || strings.IndexByte(rest, '\n') >= 0 {
		return
	}
	if d, ok := ParseLine(rest); ok {
		b.diags = append(b.diags, d)
	}
}

// Pending returns the buffered, not yet parsed data.
func (b *LineBuffer) Pending() string {
	return b.pending
}

// Diagnostics returns the diagnostics parsed so far.
func (b *LineBuffer) Diagnostics() []Diagnostic {
	return b.diags
}
