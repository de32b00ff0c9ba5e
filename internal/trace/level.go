package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // only failures
	LevelPhase               // protocol messages and lifecycle
	LevelDetail              // plus validation runs
	LevelDebug               // plus stdout chunks
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// maxScope is the finest scope each level lets through.
var maxScope = [...]Scope{
	LevelOff:    0,
	LevelError:  0,
	LevelPhase:  ScopeServer,
	LevelDetail: ScopeRun,
	LevelDebug:  ScopeLine,
}

// ShouldEmit reports whether events of scope pass this level. Errors
// and heartbeats bypass this check.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(maxScope) {
		return false
	}
	return scope != 0 && scope <= maxScope[l]
}
