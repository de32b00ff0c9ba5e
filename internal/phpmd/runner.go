package phpmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"phpmdls/internal/trace"
)

// ErrSpawn marks a failure to start the executable, as opposed to the
// tool running and reporting an error through its exit code.
var ErrSpawn = errors.New("phpmd: failed to start")

const (
	readChunkSize = 4096
	stderrTail    = 4096
	waitDelay     = 2 * time.Second
)

// Result is the outcome of one tool invocation.
type Result struct {
	Path        string
	ExitCode    int
	Diagnostics []Diagnostic
	Stderr      string
	Duration    time.Duration
}

// HasViolations reports whether the exit code asks for diagnostics to
// be shown. Tool errors (1) and violations (2) are treated alike.
func (r Result) HasViolations() bool {
	return r.ExitCode > 0
}

// Runner invokes the tool with a fixed configuration.
type Runner struct {
	cfg       Config
	chunkSize int
}

// NewRunner returns a Runner for cfg.
func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg, chunkSize: readChunkSize}
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run analyzes one file. Stdout is parsed while the process runs; the
// exit code is read once stdout is drained. A canceled ctx kills the
// process and Run returns the context error.
func (r *Runner) Run(ctx context.Context, path string) (Result, error) {
	exe := r.cfg.Executable()
	args := r.cfg.Args(path)

	ctx, span := trace.StartSpan(ctx, trace.ScopeRun, "phpmd")
	span.Set("path", path)
	tracer := trace.FromContext(ctx)

	started := time.Now()
	res := Result{Path: path}

	cmd := exec.CommandContext(ctx, exe, args...)
	configureProcess(cmd)
	cmd.WaitDelay = waitDelay
	stderr := &tailBuffer{limit: stderrTail}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		span.End("pipe error")
		return res, fmt.Errorf("%w %s: %w", ErrSpawn, exe, err)
	}
	if err := cmd.Start(); err != nil {
		span.End("spawn error")
		return res, fmt.Errorf("%w %s: %w", ErrSpawn, exe, err)
	}

	var lines LineBuffer
	buf := make([]byte, r.chunkSize)
	var readErr error
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			lines.Feed(buf[:n])
			trace.Point(tracer, trace.ScopeLine, "chunk", strconv.Itoa(n))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}
	lines.Flush()

	waitErr := cmd.Wait()
	res.Duration = time.Since(started)
	res.Diagnostics = lines.Diagnostics()
	res.Stderr = stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		span.End("canceled")
		return res, ctxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			span.End("wait error")
			return res, fmt.Errorf("phpmd: wait for %s: %w", exe, waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			span.End("signaled")
			return res, fmt.Errorf("phpmd: %s terminated: %w", exe, waitErr)
		}
	}
	if readErr != nil {
		span.End("read error")
		return res, fmt.Errorf("phpmd: read output of %s: %w", exe, readErr)
	}

	span.Set("exit", strconv.Itoa(res.ExitCode)).
		Set("diagnostics", strconv.Itoa(len(res.Diagnostics)))
	span.End("")
	return res, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	data  []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.data = append(t.data, p...)
	if over := len(t.data) - t.limit; over > 0 {
		t.data = append(t.data[:0], t.data[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.data)
}
