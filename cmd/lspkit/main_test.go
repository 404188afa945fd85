package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"lspkit/internal/config"
	"lspkit/internal/jsonrpc"
	"lspkit/internal/lsp"
	"lspkit/internal/replay"
	"lspkit/internal/trace"
	"lspkit/internal/version"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func readAll(t *testing.T, out []byte) []*jsonrpc.Message {
	t.Helper()
	tr := jsonrpc.NewStreamTransport(bytes.NewReader(out), io.Discard)
	var msgs []*jsonrpc.Message
	for {
		v, err := tr.Receive()
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		msg, err := jsonrpc.Decode(v)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func TestServeOverStdio(t *testing.T) {
	in := strings.Join([]string{
		frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`),
		frame(`{"jsonrpc":"2.0","method":"initialized","params":{}}`),
		frame(`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///a.txt","languageId":"txt","version":1,"text":"x TODO"}}}`),
		frame(`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`),
		frame(`{"jsonrpc":"2.0","method":"exit"}`),
	}, "")

	var out, errw bytes.Buffer
	err := serve(context.Background(), strings.NewReader(in), &out, &errw, config.Default(), trace.Nop)
	if err != nil {
		t.Fatalf("serve: %v (stderr: %s)", err, errw.String())
	}

	msgs := readAll(t, out.Bytes())
	var published, responses int
	for _, m := range msgs {
		switch {
		case m.Method == "textDocument/publishDiagnostics":
			published++
		case m.IsResponse():
			responses++
		}
	}
	if responses != 2 || published != 1 {
		t.Fatalf("expected 2 responses and 1 publish, got %d and %d", responses, published)
	}
	info, _ := msgs[0].Result.Get("serverInfo")
	name, _ := info.Get("name")
	if s, _ := name.AsString(); s != "wordls" {
		t.Fatalf("unexpected server name %v", name)
	}
}

func TestServeExitWithoutShutdownDumpsRing(t *testing.T) {
	in := frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`) +
		frame(`{"jsonrpc":"2.0","method":"exit"}`)
	ring := trace.NewRingTracer(64, trace.LevelSession)

	var out, errw bytes.Buffer
	err := serve(context.Background(), strings.NewReader(in), &out, &errw, config.Default(), ring)
	if !errors.Is(err, lsp.ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
	if !strings.Contains(errw.String(), "last trace events") || !strings.Contains(errw.String(), "session") {
		t.Fatalf("expected ring dump on stderr, got:\n%s", errw.String())
	}
}

func TestServeStopsOnCancelWhileReading(t *testing.T) {
	in, feed := io.Pipe()
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out, errw bytes.Buffer
	go func() {
		done <- serve(ctx, in, &out, &errw, config.Default(), trace.Nop)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancellation while blocked on input")
	}
	if strings.Contains(errw.String(), "last trace events") {
		t.Fatalf("unexpected ring dump on cancellation:\n%s", errw.String())
	}
}

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "lspkit"}
	registerPersistentFlags(root)
	if err := root.PersistentFlags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return root
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	body := "[server]\nname = \"custom\"\n\n[log]\ntrace_level = \"session\"\ntrace_mode = \"stream\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newTestCommand(t, "--config", path, "--trace-level", "debug", "--trace-heartbeat", "2s")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Name != "custom" {
		t.Fatalf("expected name from file, got %q", cfg.Server.Name)
	}
	if cfg.Log.TraceLevel != "debug" || cfg.Log.TraceMode != "stream" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if d, err := cfg.HeartbeatInterval(); err != nil || d.Seconds() != 2 {
		t.Fatalf("unexpected heartbeat %v (%v)", d, err)
	}

	bad := newTestCommand(t, "--config", path, "--trace-mode", "sideways")
	if _, err := loadConfig(bad); err == nil || !strings.Contains(err.Error(), "trace_mode") {
		t.Fatalf("expected trace_mode error, got %v", err)
	}
}

func TestSetupTracing(t *testing.T) {
	cfg := config.Default()
	cmd := newTestCommand(t)
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	cleanup()
	if tracer.Enabled() {
		t.Fatal("default config must not trace")
	}

	cfg.Log.TraceOutput = filepath.Join(t.TempDir(), "session.ndjson")
	tracer, cleanup, err = setupTracing(cmd, cfg)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if tracer.Level() != trace.LevelMessage {
		t.Fatalf("an output path without a level should trace messages, got %s", tracer.Level())
	}
	if trace.RingOf(tracer) == nil {
		t.Fatal("ring mode with an output path should keep the ring too")
	}
	if trace.FromContext(cmd.Context()) != tracer {
		t.Fatal("tracer not attached to the command context")
	}
	trace.Point(tracer, trace.ScopeSession, "lifecycle", "test", 0)
	cleanup()

	data, err := os.ReadFile(cfg.Log.TraceOutput)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if !strings.Contains(string(data), `"lifecycle"`) {
		t.Fatalf("trace output misses the event: %s", data)
	}
}

func TestNewEngineUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Name = "words"
	cfg.Engine.MaxLineLength = 40
	cfg.Engine.Markers = []string{"XXX"}
	engine := newEngine(cfg)
	if s := engine.Settings(); s.MaxLineLength != 40 || len(s.Markers) != 1 || s.Markers[0] != "XXX" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if engine.Name != "words" {
		t.Fatalf("unexpected name %q", engine.Name)
	}

	opts := serverOptions(cfg, trace.Nop)
	if opts.MaxConsecutiveFailures != 5 {
		t.Fatalf("unexpected threshold %d", opts.MaxConsecutiveFailures)
	}
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in   string
		want uiMode
		err  bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if !shouldUseTUI(uiModeOn, nil) || shouldUseTUI(uiModeOff, os.Stdout) || shouldUseTUI(uiModeAuto, nil) {
		t.Fatal("unexpected TUI decision")
	}
}

func TestApplyColorMode(t *testing.T) {
	if err := applyColorMode("rainbow"); err == nil {
		t.Fatal("expected error for unknown color mode")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var out bytes.Buffer
	info := version.Info{Version: "1.2.3", GitCommit: "abc"}
	if err := renderVersionJSON(&out, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Tool != "lspkit" || payload.Version != "1.2.3" || payload.GitCommit != "abc" || payload.BuildDate != "unknown" || payload.GitMessage != "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	msgs := []jsonrpc.Value{
		jsonrpc.NewResponse(jsonrpc.NumberID(1), jsonrpc.Null()),
	}
	path := filepath.Join(dir, "out.ndjson")
	if err := writeReport(io.Discard, path, replay.Result{Sent: msgs}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != `{"jsonrpc":"2.0","id":1,"result":null}` {
		t.Fatalf("unexpected report %q", data)
	}
}

func TestSetupProfiling(t *testing.T) {
	cmd := newTestCommand(t)
	stop, err := setupProfiling(cmd)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	stop()

	path := filepath.Join(t.TempDir(), "mem.pprof")
	cmd = newTestCommand(t, "--mem-profile", path)
	stop, err = setupProfiling(cmd)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	stop()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("heap profile not written: %v", err)
	}
}
