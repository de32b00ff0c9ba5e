package lsp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"phpmdls/internal/phpmd"
	"phpmdls/internal/trace"
)

// scheduleValidation debounces a validation of uri. Each document has
// its own timer, so saving one file never cancels another file's run.
func (s *Server) scheduleValidation(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled || s.shutdownRequested {
		return
	}
	if !s.isPHPLocked(uri) {
		trace.Point(s.tracer, trace.ScopeRun, "skip", "not php: "+uri)
		return
	}
	// Numbers come from one counter so a deleted entry never matches a run.
	s.lastSeq++
	seq := s.lastSeq
	s.seqs[uri] = seq
	if t := s.timers[uri]; t != nil {
		t.Stop()
	}
	s.timers[uri] = s.clock.AfterFunc(s.debounce, func() {
		s.runValidation(uri, seq)
	})
}

func (s *Server) isPHPLocked(uri string) bool {
	if doc, ok := s.docs[uri]; ok && doc.languageID != "" {
		return doc.languageID == "php"
	}
	return isPHPPath(uriToPath(uri))
}

func (s *Server) runValidation(uri string, seq uint64) {
	s.mu.Lock()
	if s.seqs[uri] != seq {
		s.mu.Unlock()
		return
	}
	delete(s.timers, uri)
	cfg := s.cfg
	ctx := s.baseCtx
	s.mu.Unlock()

	path := uriToPath(uri)
	if path == "" {
		return
	}

	runCtx, span := trace.StartSpan(trace.WithTracer(ctx, s.tracer), trace.ScopeRun, "validate")
	span.Set("uri", uri).Set("seq", strconv.FormatUint(seq, 10))

	res, err := s.run(runCtx, cfg, path)
	if err != nil {
		span.End("error")
		s.handleRunError(ctx, uri, cfg, err)
		return
	}
	s.mu.Lock()
	s.spawnFailing = false
	s.mu.Unlock()

	if !s.publishIfLatest(uri, seq, res) {
		span.End("superseded")
		return
	}
	if res.ExitCode == 1 && res.Stderr != "" {
		trace.Error(s.tracer, trace.ScopeRun, "phpmd", errors.New(res.Stderr))
	}
	span.Set("exit", strconv.Itoa(res.ExitCode)).
		Set("diagnostics", strconv.Itoa(len(res.Diagnostics)))
	span.End("")
}

func (s *Server) handleRunError(ctx context.Context, uri string, cfg phpmd.Config, err error) {
	if ctx.Err() != nil {
		return
	}
	trace.Error(s.tracer, trace.ScopeRun, "validate", err)
	if !errors.Is(err, phpmd.ErrSpawn) {
		s.logf("validation of %s failed: %v", uri, err)
		return
	}
	s.mu.Lock()
	already := s.spawnFailing
	s.spawnFailing = true
	s.mu.Unlock()
	s.logf("%v", err)
	if already {
		return
	}
	text := fmt.Sprintf("phpmd: cannot run %q; check phpmd.validate.executablePath", cfg.Executable())
	if sendErr := s.sendShowMessage(messageTypeError, text); sendErr != nil {
		s.logf("failed to show message: %v", sendErr)
	}
}

// publishIfLatest publishes the result of run seq unless a newer run
// was scheduled for uri or the document was closed meanwhile.
func (s *Server) publishIfLatest(uri string, seq uint64, res phpmd.Result) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if s.seqs[uri] != seq || s.shutdownRequested {
		latest := s.seqs[uri]
		s.mu.Unlock()
		trace.Point(s.tracer, trace.ScopeRun, "discard",
			fmt.Sprintf("uri=%s seq=%d latest=%d", uri, seq, latest))
		return false
	}
	var list []lspDiagnostic
	if res.HasViolations() {
		list = toLSPDiagnostics(res.Diagnostics)
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()

	if err := s.sendPublish(uri, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
	return true
}

// forgetDocument drops all state for a closed document and clears its
// diagnostics whether or not any were published.
func (s *Server) forgetDocument(uri string) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if t := s.timers[uri]; t != nil {
		t.Stop()
	}
	delete(s.timers, uri)
	// Dropping the entry invalidates any run still in flight.
	delete(s.seqs, uri)
	delete(s.docs, uri)
	delete(s.published, uri)
	s.mu.Unlock()

	if err := s.sendPublish(uri, nil); err != nil {
		s.logf("failed to clear diagnostics: %v", err)
	}
}

// teardown stops every pending timer, invalidates in-flight runs and
// clears all published diagnostics.
func (s *Server) teardown() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	for uri, t := range s.timers {
		t.Stop()
		delete(s.timers, uri)
	}
	clear(s.seqs)
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()

	for uri := range prev {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func toLSPDiagnostics(diags []phpmd.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, lspDiagnostic{
			Range: lspRange{
				Start: position{Line: d.Line, Character: d.StartColumn},
				End:   position{Line: d.Line, Character: d.EndColumn},
			},
			Severity: severityWarning,
			Source:   "phpmd",
			Message:  d.Message,
		})
	}
	return out
}
