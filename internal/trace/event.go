package trace

import (
	"sync/atomic"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
	// KindError records a failure. It passes every level but LevelOff.
	KindError
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
	KindError:     "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope orders events from coarse to fine. Levels select a prefix of it.
type Scope uint8

const (
	// ScopeServer covers protocol messages, lifecycle and batch checks.
	ScopeServer Scope = iota + 1
	// ScopeRun covers one validation run.
	ScopeRun
	// ScopeLine covers stdout chunks of the tool.
	ScopeLine
)

var scopeNames = [...]string{
	ScopeServer: "server",
	ScopeRun:    "run",
	ScopeLine:   "line",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record. Tracers receive a pointer they may keep
// only after copying.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Attrs    map[string]string
}

// alwaysEmitted reports whether the event ignores scope filtering.
func (ev *Event) alwaysEmitted() bool {
	return ev.Kind == KindHeartbeat || ev.Kind == KindError
}

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// emit stamps ev with the current time and the next sequence number and
// hands it to t.
func emit(t Tracer, ev Event) {
	ev.Time = time.Now()
	ev.Seq = seqCounter.Add(1)
	t.Emit(&ev)
}
