// Package trace provides tracing for the phpmd language server.
//
// Tracing follows a save through its debounce, the tool invocation and
// the parsed report, which helps when diagnostics fail to show up or
// show up late.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	phpmdls lsp --trace=/tmp/phpmdls.trace --trace-level=detail
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer dumped on demand
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only failures
//   - LevelPhase: Server lifecycle and protocol events
//   - LevelDetail: Validation runs
//   - LevelDebug: Everything including stdout chunks
//
// # Scopes
//
//   - ScopeServer: protocol and lifecycle events
//   - ScopeRun: one validation run (debounce firing, tool invocation)
//   - ScopeLine: stdout chunks and parsed lines
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	ctx, span := trace.StartSpan(ctx, trace.ScopeRun, "validate")
//	defer span.End("")
package trace
