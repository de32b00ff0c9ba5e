package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a periodic event so that a trace shows the server is
// alive while a run waits on the tool.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat starts emitting to t every interval. It returns nil
// when t is disabled or interval is not positive; Stop on nil is a no-op.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.loop(t, interval)
	return h
}

func (h *Heartbeat) loop(t Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	started := time.Now()
	for beat := 1; ; beat++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			emit(t, Event{
				Kind:   KindHeartbeat,
				Scope:  ScopeServer,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(beat),
				Attrs:  map[string]string{"uptime": now.Sub(started).Round(time.Millisecond).String()},
			})
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
