package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"phpmdls/internal/clock"
	"phpmdls/internal/phpmd"
)

type fakeRun struct {
	mu     sync.Mutex
	calls  []string
	result func(call int, path string) (phpmd.Result, error)
}

func (f *fakeRun) run(_ context.Context, _ phpmd.Config, path string) (phpmd.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	call := len(f.calls)
	f.mu.Unlock()
	if f.result == nil {
		return phpmd.Result{Path: path}, nil
	}
	return f.result(call, path)
}

func (f *fakeRun) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testServer struct {
	*Server
	out   *bytes.Buffer
	clock *clock.FakeClock
	run   *fakeRun
}

func newTestServer(t *testing.T, run *fakeRun) *testServer {
	t.Helper()
	var out bytes.Buffer
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if run == nil {
		run = &fakeRun{}
	}
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Clock: clk,
		Run:   run.run,
		ProjectConfig: func(string) (phpmd.Overrides, string, error) {
			return phpmd.Overrides{}, "", nil
		},
	})
	return &testServer{Server: server, out: &out, clock: clk, run: run}
}

func (ts *testServer) notify(t *testing.T, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal %s: %v", method, err)
	}
	if err := ts.handleMessage(&rpcMessage{JSONRPC: "2.0", Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func (ts *testServer) open(t *testing.T, uri, languageID string) {
	t.Helper()
	ts.notify(t, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: languageID, Version: 1, Text: "<?php\n"},
	})
}

func (ts *testServer) save(t *testing.T, uri string) {
	t.Helper()
	ts.notify(t, "textDocument/didSave", didSaveTextDocumentParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	})
}

func (ts *testServer) closeDoc(t *testing.T, uri string) {
	t.Helper()
	ts.notify(t, "textDocument/didClose", didCloseTextDocumentParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	})
}

// drain returns every message written so far and resets the buffer.
func (ts *testServer) drain(t *testing.T) []rpcMessage {
	t.Helper()
	msgs := readAllMessages(t, ts.out.Bytes())
	ts.out.Reset()
	return msgs
}

func readAllMessages(t *testing.T, data []byte) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(data))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return msgs
			}
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func publishes(t *testing.T, msgs []rpcMessage) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, msg := range msgs {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			t.Fatalf("decode publish: %v", err)
		}
		out = append(out, params)
	}
	return out
}

func phpURI(t *testing.T, name string) string {
	t.Helper()
	return pathToURI(filepath.Join(t.TempDir(), name))
}

func violations(diags ...phpmd.Diagnostic) func(int, string) (phpmd.Result, error) {
	return func(_ int, path string) (phpmd.Result, error) {
		return phpmd.Result{Path: path, ExitCode: 2, Diagnostics: diags}, nil
	}
}
