package batch

import (
	"context"
	"time"

	"phpmdls/internal/phpmd"
)

// Status captures the state of one file in a batch.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusRunning indicates the tool is analyzing the file.
	StatusRunning Status = "running"
	// StatusClean indicates the tool exited 0.
	StatusClean Status = "clean"
	// StatusViolations indicates the tool exited with a positive code.
	StatusViolations Status = "violations"
	// StatusError indicates the tool could not be run.
	StatusError Status = "error"
)

// Finished reports whether no further events follow for the file.
func (s Status) Finished() bool {
	return s == StatusClean || s == StatusViolations || s == StatusError
}

// Event reports progress for a file.
type Event struct {
	File        string
	Status      Status
	Diagnostics int
	Err         error
	Elapsed     time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// RunFunc analyzes one file.
type RunFunc func(ctx context.Context, cfg phpmd.Config, path string) (phpmd.Result, error)

// FileResult is the outcome for one file.
type FileResult struct {
	Path   string
	Result phpmd.Result
	Err    error
}

// Status classifies the outcome the same way progress events do.
func (r FileResult) Status() Status {
	switch {
	case r.Err != nil:
		return StatusError
	case r.Result.HasViolations():
		return StatusViolations
	default:
		return StatusClean
	}
}
