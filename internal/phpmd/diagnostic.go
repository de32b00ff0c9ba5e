package phpmd

import (
	"math"
	"regexp"
	"strconv"

	"fortio.org/safecast"
)

// MessagePrefix tags every diagnostic message with the tool name.
const MessagePrefix = "PHPMD: "

// MaxColumn is the end column of a whole-line range. It is the largest
// unsigned integer LSP clients are required to accept.
const MaxColumn = math.MaxInt32

// Diagnostic is one rule violation reported by the tool.
type Diagnostic struct {
	Line        int // 0-based
	StartColumn int
	EndColumn   int
	Message     string
}

var lineExpr = regexp.MustCompile(`([a-zA-Z_/.]+):(\d+)\t(.*)`)

// ParseLine parses one text report line of the form
// "<path>:<line>\t<message>". The second result is false when the line
// does not match.
func ParseLine(line string) (Diagnostic, bool) {
	m := lineExpr.FindStringSubmatch(line)
	if m == nil {
		return Diagnostic{}, false
	}
	raw, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Diagnostic{}, false
	}
	n, err := safecast.Conv[int](raw)
	if err != nil {
		return Diagnostic{}, false
	}
	lineNo := n - 1
	if lineNo < 0 {
		lineNo = 0
	}
	return Diagnostic{
		Line:        lineNo,
		StartColumn: 0,
		EndColumn:   MaxColumn,
		Message:     MessagePrefix + m[3],
	}, true
}
