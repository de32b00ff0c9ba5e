package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"phpmdls/internal/phpmd"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordingSink) final(file string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last Status
	for _, evt := range s.events {
		if evt.File == file {
			last = evt.Status
		}
	}
	return last
}

func stubRun(results map[string]phpmd.Result, errs map[string]error) RunFunc {
	return func(_ context.Context, _ phpmd.Config, path string) (phpmd.Result, error) {
		if err := errs[path]; err != nil {
			return phpmd.Result{Path: path}, err
		}
		return results[path], nil
	}
}

func TestCheckKeepsOrderAndClassifies(t *testing.T) {
	files := []string{"a.php", "b.php", "c.php"}
	sink := &recordingSink{}
	report, err := Check(context.Background(), &Request{
		Files: files,
		Jobs:  2,
		Config: phpmd.DefaultConfig(),
		Run: stubRun(map[string]phpmd.Result{
			"a.php": {Path: "a.php"},
			"b.php": {Path: "b.php", ExitCode: 2, Diagnostics: []phpmd.Diagnostic{{Line: 1}, {Line: 4}}},
			"c.php": {Path: "c.php", ExitCode: 1},
		}, nil),
		Progress: sink,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var paths []string
	for _, f := range report.Files {
		paths = append(paths, f.Path)
	}
	if !reflect.DeepEqual(paths, files) {
		t.Fatalf("results out of order: %v", paths)
	}
	if report.DiagnosticCount() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", report.DiagnosticCount())
	}
	if report.ExitCode() != ExitViolations {
		t.Fatalf("expected exit %d, got %d", ExitViolations, report.ExitCode())
	}
	want := map[string]Status{"a.php": StatusClean, "b.php": StatusViolations, "c.php": StatusViolations}
	for file, status := range want {
		if got := sink.final(file); got != status {
			t.Fatalf("%s: final status %s, want %s", file, got, status)
		}
	}
}

func TestCheckCleanExit(t *testing.T) {
	report, err := Check(context.Background(), &Request{
		Files: []string{"a.php"},
		Run:   stubRun(map[string]phpmd.Result{"a.php": {Path: "a.php"}}, nil),
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.ExitCode() != ExitClean {
		t.Fatalf("expected clean exit, got %d", report.ExitCode())
	}
	if report.Timing != nil {
		t.Fatal("timing recorded without Timings")
	}
}

func TestCheckSpawnFailureWins(t *testing.T) {
	spawnErr := fmt.Errorf("%w phpmd: %w", phpmd.ErrSpawn, os.ErrNotExist)
	report, err := Check(context.Background(), &Request{
		Files: []string{"a.php", "b.php"},
		Run: stubRun(
			map[string]phpmd.Result{"a.php": {Path: "a.php", ExitCode: 2}},
			map[string]error{"b.php": spawnErr},
		),
		Timings: true,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.ExitCode() != ExitSpawn {
		t.Fatalf("expected exit %d, got %d", ExitSpawn, report.ExitCode())
	}
	if report.Files[1].Status() != StatusError {
		t.Fatalf("expected error status, got %s", report.Files[1].Status())
	}
	if report.Timing == nil || len(report.Timing.Phases) != 1 {
		t.Fatalf("expected one timing phase, got %+v", report.Timing)
	}
}

func TestCheckRespectsJobLimit(t *testing.T) {
	var running, peak atomic.Int32
	gate := make(chan struct{})
	run := func(context.Context, phpmd.Config, string) (phpmd.Result, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-gate
		running.Add(-1)
		return phpmd.Result{}, nil
	}
	files := make([]string, 8)
	for i := range files {
		files[i] = fmt.Sprintf("f%d.php", i)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Check(context.Background(), &Request{Files: files, Jobs: 3, Run: run})
	}()
	close(gate)
	<-done
	if peak.Load() > 3 {
		t.Fatalf("more than 3 concurrent runs: %d", peak.Load())
	}
}

func TestCheckCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Check(ctx, &Request{
		Files: []string{"a.php"},
		Run:   stubRun(nil, nil),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"src/B.php",
		"src/A.php",
		"src/readme.md",
		"src/.cache/Hidden.php",
		"vendor/lib/Lib.php",
		"tests/CaseTest.PHP",
	} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<?php\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	explicit := filepath.Join(root, "src", "readme.md")

	got, err := CollectFiles([]string{root, explicit, filepath.Join(root, "src", "A.php")})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	var rel []string
	for _, path := range got {
		r, _ := filepath.Rel(root, path)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"src/A.php", "src/B.php", "tests/CaseTest.PHP", "src/readme.md"}
	if strings.Join(rel, ",") != strings.Join(want, ",") {
		t.Fatalf("CollectFiles = %v, want %v", rel, want)
	}
}

func TestCollectFilesMissing(t *testing.T) {
	if _, err := CollectFiles([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}
