package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"phpmdls/internal/observ"
	"phpmdls/internal/phpmd"
	"phpmdls/internal/trace"
)

// Process exit codes of a batch check.
const (
	ExitClean      = 0
	ExitSpawn      = 1
	ExitViolations = 2
)

// Request describes one batch check.
type Request struct {
	Files    []string
	Jobs     int
	Config   phpmd.Config
	Run      RunFunc
	Progress ProgressSink
	Timings  bool
}

// Report holds per-file results in the order of Request.Files.
type Report struct {
	Files  []FileResult
	Timing *observ.Report
}

// ExitCode maps the results to a process exit status. A file the tool
// could not be started for wins over violations.
func (r Report) ExitCode() int {
	code := ExitClean
	for _, f := range r.Files {
		if f.Err != nil && errors.Is(f.Err, phpmd.ErrSpawn) {
			return ExitSpawn
		}
		if f.Status() != StatusClean {
			code = ExitViolations
		}
	}
	return code
}

// DiagnosticCount returns the number of diagnostics across all files.
func (r Report) DiagnosticCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Result.Diagnostics)
	}
	return n
}

// Check runs the tool on every file with at most Jobs concurrent
// processes. Per-file failures are recorded in the report; the returned
// error is non-nil only when ctx is canceled.
func Check(ctx context.Context, req *Request) (Report, error) {
	if req == nil {
		return Report{}, fmt.Errorf("missing check request")
	}
	run := req.Run
	if run == nil {
		run = func(ctx context.Context, cfg phpmd.Config, path string) (phpmd.Result, error) {
			return phpmd.NewRunner(cfg).Run(ctx, path)
		}
	}
	var timer *observ.Timer
	if req.Timings {
		timer = observ.NewTimer()
	}

	ctx, span := trace.StartSpan(ctx, trace.ScopeServer, "check")
	span.Set("files", strconv.Itoa(len(req.Files)))
	defer span.End("")
	tracer := trace.FromContext(ctx)

	results := make([]FileResult, len(req.Files))
	if len(req.Files) == 0 {
		return Report{Files: results}, nil
	}
	for _, path := range req.Files {
		emit(req.Progress, Event{File: path, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	phase := timer.Begin("analyze")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Files)))

	for i, path := range req.Files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(req.Progress, Event{File: path, Status: StatusRunning})
			started := time.Now()
			res, err := run(gctx, req.Config, path)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				trace.Error(tracer, trace.ScopeRun, "phpmd", err)
			}
			results[i] = FileResult{Path: path, Result: res, Err: err}
			emit(req.Progress, Event{
				File:        path,
				Status:      results[i].Status(),
				Diagnostics: len(res.Diagnostics),
				Err:         err,
				Elapsed:     time.Since(started),
			})
			return nil
		})
	}

	err := g.Wait()
	timer.End(phase, fmt.Sprintf("%d files, %d jobs", len(req.Files), jobs))

	report := Report{Files: results}
	if timer != nil {
		r := timer.Report()
		report.Timing = &r
	}
	return report, err
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// CollectFiles expands the arguments into a sorted, de-duplicated list
// of PHP files. Directories are walked recursively; hidden directories
// and vendor/ are skipped. Files named explicitly are kept whatever
// their extension.
func CollectFiles(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !st.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		var found []string
		walkErr := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != arg && (strings.HasPrefix(name, ".") || name == "vendor") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".php") {
				found = append(found, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", arg, walkErr)
		}
		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}
	return out, nil
}
