package trace

import "time"

// Span measures one operation. The zero Span and spans from a disabled
// tracer are inert, so callers never check before using one.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	attrs   map[string]string
}

// Begin emits a begin event and returns the span. parent is 0 for a
// root span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !emits(t, scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	emit(t, Event{Kind: KindSpanBegin, Scope: scope, SpanID: s.id, ParentID: parent, Name: name})
	return s
}

// Set records an attribute reported with the end event.
func (s *Span) Set(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string, 4)
	}
	s.attrs[key] = value
	return s
}

// End emits the end event with the recorded attributes and returns the
// span's duration. Inert spans return 0.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	emit(s.tracer, Event{
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Attrs:    s.attrs,
	})
	return time.Since(s.started)
}

// ID returns the span ID, 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event.
func Point(t Tracer, scope Scope, name, detail string) {
	if emits(t, scope) {
		emit(t, Event{Kind: KindPoint, Scope: scope, Name: name, Detail: detail})
	}
}

// Error emits a failure event at any level but LevelOff.
func Error(t Tracer, scope Scope, name string, err error) {
	if t == nil || err == nil || !t.Enabled() {
		return
	}
	emit(t, Event{Kind: KindError, Scope: scope, Name: name, Detail: err.Error()})
}

func emits(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}
