package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"phpmdls/internal/clock"
	"phpmdls/internal/phpmd"
	"phpmdls/internal/trace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// RunFunc runs the analysis tool for one file.
type RunFunc func(ctx context.Context, cfg phpmd.Config, path string) (phpmd.Result, error)

// ProjectConfigFunc resolves configuration overrides for a workspace root.
type ProjectConfigFunc func(root string) (phpmd.Overrides, string, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Debounce is the quiet period per document. Defaults to phpmd.DefaultDebounce.
	Debounce time.Duration
	// Config is the base configuration before workspace overrides.
	// Nil means phpmd.DefaultConfig().
	Config *phpmd.Config
	// Run defaults to phpmd.Runner.
	Run RunFunc
	// ProjectConfig defaults to phpmd.DiscoverProjectFile.
	ProjectConfig ProjectConfigFunc
	Clock         clock.Clock
	Version       string
}

type document struct {
	languageID string
	version    int
}

// Server handles stdio JSON-RPC for the phpmd language server.
type Server struct {
	in        *bufio.Reader
	out       *bufio.Writer
	sendMu    sync.Mutex
	publishMu sync.Mutex
	mu        sync.Mutex

	clock         clock.Clock
	debounce      time.Duration
	run           RunFunc
	projectConfig ProjectConfigFunc
	version       string
	tracer        trace.Tracer

	baseConfig phpmd.Config
	cfg        phpmd.Config

	docs      map[string]document
	timers    map[string]clock.Timer
	seqs      map[string]uint64
	lastSeq   uint64
	published map[string]struct{}

	workspaceRoot     string
	initialized       bool
	shutdownRequested bool
	spawnFailing      bool
	baseCtx           context.Context
	cancel            context.CancelFunc
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = phpmd.DefaultDebounce
	}
	base := phpmd.DefaultConfig()
	if opts.Config != nil {
		base = *opts.Config
	}
	runFn := opts.Run
	if runFn == nil {
		runFn = func(ctx context.Context, cfg phpmd.Config, path string) (phpmd.Result, error) {
			return phpmd.NewRunner(cfg).Run(ctx, path)
		}
	}
	projectFn := opts.ProjectConfig
	if projectFn == nil {
		projectFn = phpmd.DiscoverProjectFile
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Server{
		in:            bufio.NewReader(in),
		out:           bufio.NewWriter(out),
		clock:         clk,
		debounce:      debounce,
		run:           runFn,
		projectConfig: projectFn,
		version:       opts.Version,
		tracer:        trace.Nop,
		baseConfig:    base,
		cfg:           base,
		docs:          make(map[string]document),
		timers:        make(map[string]clock.Timer),
		seqs:          make(map[string]uint64),
		published:     make(map[string]struct{}),
		baseCtx:       context.Background(),
	}
}

// Run serves LSP requests until exit or EOF. Canceling ctx, or leaving
// Run, kills any tool process still running.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.baseCtx = runCtx
	s.cancel = cancel
	s.tracer = trace.FromContext(ctx)
	s.mu.Unlock()

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.teardown()
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	trace.Point(s.tracer, trace.ScopeServer, msg.Method, "")
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.teardown()
		if s.isShutdownRequested() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	s.mu.Lock()
	already := s.initialized
	s.mu.Unlock()
	if already {
		return s.sendError(msg.ID, codeInvalidRequest, "server already initialized")
	}

	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	cfg := s.resolveConfig(root, params.InitializationOptions)

	s.mu.Lock()
	s.workspaceRoot = root
	s.cfg = cfg
	s.initialized = true
	s.mu.Unlock()

	trace.Point(s.tracer, trace.ScopeServer, "config",
		fmt.Sprintf("enabled=%t executable=%s rulesets=%v", cfg.Enabled, cfg.Executable(), cfg.Rulesets))

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    0,
				Save:      saveOptions{IncludeText: false},
			},
		},
		ServerInfo: &serverInfo{Name: "phpmdls", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.teardown()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.docs[uri] = document{
		languageID: params.TextDocument.LanguageID,
		version:    params.TextDocument.Version,
	}
	s.mu.Unlock()
	return nil
}

// handleDidChange is where RunOnType would hook in. It is registered so
// the mode has a listener, but it does not validate.
func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if doc, ok := s.docs[uri]; ok {
		doc.version = params.TextDocument.Version
		s.docs[uri] = doc
	}
	s.mu.Unlock()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	if s.currentConfig().RunMode != phpmd.RunOnSave {
		return nil
	}
	s.scheduleValidation(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	if !s.currentConfig().Enabled {
		s.mu.Lock()
		delete(s.docs, uri)
		s.mu.Unlock()
		return nil
	}
	s.forgetDocument(uri)
	return nil
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) sendShowMessage(kind int, text string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "window/showMessage",
		"params": showMessageParams{
			Type:    kind,
			Message: text,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}

func (s *Server) isShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) currentConfig() phpmd.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
