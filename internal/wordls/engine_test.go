package wordls

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/lsp"
	"lspkit/internal/protocol"
)

type harness struct {
	t    *testing.T
	msgs []jsonrpc.Value
	next int64
}

func newHarness(t *testing.T, rootURI string) *harness {
	h := &harness{t: t, next: 1}
	root := jsonrpc.Null()
	if rootURI != "" {
		root = jsonrpc.String(rootURI)
	}
	h.request("initialize", jsonrpc.Object(jsonrpc.Field("rootUri", root)))
	h.notify("initialized", jsonrpc.Object())
	return h
}

func (h *harness) request(method string, params jsonrpc.Value) int64 {
	id := h.next
	h.next++
	h.msgs = append(h.msgs, jsonrpc.NewRequest(jsonrpc.NumberID(id), method, params))
	return id
}

func (h *harness) notify(method string, params jsonrpc.Value) {
	h.msgs = append(h.msgs, jsonrpc.NewNotification(method, params))
}

func (h *harness) raw(method, params string) {
	v, err := jsonrpc.Parse([]byte(params))
	if err != nil {
		h.t.Fatalf("parse %s: %v", params, err)
	}
	h.notify(method, v)
}

func (h *harness) open(uri, text string) {
	h.notify("textDocument/didOpen", jsonrpc.Object(jsonrpc.Field("textDocument", jsonrpc.Object(
		jsonrpc.Field("uri", jsonrpc.String(uri)),
		jsonrpc.Field("languageId", jsonrpc.String("text")),
		jsonrpc.Field("version", jsonrpc.Int(1)),
		jsonrpc.Field("text", jsonrpc.String(text)),
	))))
}

func (h *harness) close(uri string) {
	h.notify("textDocument/didClose", jsonrpc.Object(jsonrpc.Field("textDocument", jsonrpc.Object(
		jsonrpc.Field("uri", jsonrpc.String(uri)),
	))))
}

func (h *harness) at(method, uri string, line, char int) int64 {
	return h.request(method, jsonrpc.Object(
		jsonrpc.Field("textDocument", jsonrpc.Object(jsonrpc.Field("uri", jsonrpc.String(uri)))),
		jsonrpc.Field("position", protocol.Position{Line: line, Character: char}.Value()),
	))
}

type result struct {
	sent []*jsonrpc.Message
}

func (h *harness) run(opts Options) *result {
	h.request("shutdown", jsonrpc.Null())
	h.notify("exit", jsonrpc.Null())
	transport := jsonrpc.NewQueueTransport(h.msgs...)
	server := lsp.NewServer(transport, New(opts), lsp.Options{Log: io.Discard, Trace: protocol.TraceVerbose})
	if err := server.Run(context.Background()); err != nil {
		h.t.Fatalf("Run: %v", err)
	}
	res := &result{}
	for _, raw := range transport.Sent() {
		msg, err := jsonrpc.Decode(raw)
		if err != nil {
			h.t.Fatalf("decode %s: %v", raw, err)
		}
		res.sent = append(res.sent, msg)
	}
	return res
}

func (r *result) response(t *testing.T, id int64) *jsonrpc.Message {
	t.Helper()
	for _, msg := range r.sent {
		if msg.IsResponse() && msg.ID == jsonrpc.NumberID(id) {
			return msg
		}
	}
	t.Fatalf("no response for %d", id)
	return nil
}

func (r *result) locations(t *testing.T, id int64) []string {
	t.Helper()
	resp := r.response(t, id)
	if resp.Error != nil {
		t.Fatalf("request %d failed: %s", id, resp.Error.Message)
	}
	var out []string
	for _, item := range resp.Result.Items() {
		loc, err := protocol.LocationFromValue(item)
		if err != nil {
			t.Fatalf("decode location: %v", err)
		}
		out = append(out, loc.URI+"@"+loc.Range.String())
	}
	return out
}

// pushes returns the diagnostic lists published for uri, oldest first.
func (r *result) pushes(t *testing.T, uri string) [][]protocol.Diagnostic {
	t.Helper()
	var out [][]protocol.Diagnostic
	for _, msg := range r.sent {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		params, err := protocol.DecodePublishDiagnosticsParams(msg.Params)
		if err != nil {
			t.Fatalf("decode push: %v", err)
		}
		if params.URI == uri {
			out = append(out, params.Diagnostics)
		}
	}
	return out
}

func summary(diags []protocol.Diagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, fmt.Sprintf("%d@%s", *d.Code, d.Range))
	}
	return strings.Join(parts, " ")
}

func TestDefinitionReferencesAndHighlight(t *testing.T) {
	h := newHarness(t, "")
	h.open("file:///a.txt", "let alpha = 1\n")
	h.open("file:///b.txt", "alpha + alpha\n")
	h.close("file:///a.txt")
	def := h.at("textDocument/definition", "file:///b.txt", 0, 0)
	refs := h.at("textDocument/references", "file:///b.txt", 0, 9)
	hl := h.request("textDocument/documentHighlight", jsonrpc.Object(
		jsonrpc.Field("textDocument", jsonrpc.Object(jsonrpc.Field("uri", jsonrpc.String("file:///a.txt")))),
		jsonrpc.Field("position", protocol.Position{Line: 0, Character: 6}.Value()),
	))
	none := h.at("textDocument/definition", "file:///b.txt", 0, 6)
	res := h.run(Options{})

	if got := strings.Join(res.locations(t, def), ","); got != "file:///a.txt@0:4-0:9" {
		t.Fatalf("definition in a closed document must be found, got %s", got)
	}
	wantRefs := "file:///a.txt@0:4-0:9,file:///b.txt@0:0-0:5,file:///b.txt@0:8-0:13"
	if got := strings.Join(res.locations(t, refs), ","); got != wantRefs {
		t.Fatalf("unexpected references %s", got)
	}
	highlights := res.response(t, hl).Result.Items()
	if len(highlights) != 1 {
		t.Fatalf("expected one highlight, got %d", len(highlights))
	}
	if kind, _ := highlights[0].Get("kind"); !kind.Equal(jsonrpc.Int(int(protocol.HighlightWrite))) {
		t.Fatalf("definition must highlight as write, got %s", highlights[0])
	}
	if got := res.locations(t, none); len(got) != 0 {
		t.Fatalf("no word under cursor, got %v", got)
	}
}

func TestRequestErrors(t *testing.T) {
	h := newHarness(t, "")
	h.open("file:///a.txt", "x\n")
	unknown := h.at("textDocument/definition", "file:///nope.txt", 0, 0)
	outside := h.at("textDocument/references", "file:///a.txt", 4, 0)
	res := h.run(Options{})

	if resp := res.response(t, unknown); resp.Error == nil || resp.Error.Code != jsonrpc.RequestFailed {
		t.Fatalf("unknown document: expected RequestFailed, got %+v", resp)
	}
	if resp := res.response(t, outside); resp.Error == nil || resp.Error.Code != jsonrpc.InvalidRange {
		t.Fatalf("position past the end: expected InvalidRange, got %+v", resp)
	}
}

func TestDiagnosticsAndReconfiguration(t *testing.T) {
	text := strings.Join([]string{
		"let x = 1",
		"let x = 2   ",
		"// TODO tidy",
		"let old = 0 // deprecated",
		"old",
		"",
	}, "\n")
	h := newHarness(t, "")
	h.open("file:///d.txt", text)
	h.raw("workspace/didChangeConfiguration", `{"settings":{"wordls":{"maxLineLength":10,"markers":[]}}}`)
	res := h.run(Options{})

	pushes := res.pushes(t, "file:///d.txt")
	if len(pushes) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pushes))
	}
	want := "1001@1:4-1:5 1003@1:9-1:12 1004@2:3-2:7 1005@4:0-4:3"
	if got := summary(pushes[0]); got != want {
		t.Fatalf("initial diagnostics:\n got %s\nwant %s", got, want)
	}
	want = "1001@1:4-1:5 1002@1:10-1:12 1003@1:9-1:12 1002@2:10-2:12 1002@3:10-3:25 1005@4:0-4:3"
	if got := summary(pushes[1]); got != want {
		t.Fatalf("after reconfiguration:\n got %s\nwant %s", got, want)
	}

	dup := pushes[0][0]
	if dup.Severity != protocol.SeverityError || len(dup.RelatedInformation) != 1 {
		t.Fatalf("unexpected duplicate diagnostic %+v", dup)
	}
	if r := dup.RelatedInformation[0].Location.Range.String(); r != "0:4-0:5" {
		t.Fatalf("related information must point at the first definition, got %s", r)
	}
	if tags := pushes[0][1].Tags; len(tags) != 1 || tags[0] != protocol.TagUnnecessary {
		t.Fatalf("trailing whitespace must be tagged unnecessary, got %v", tags)
	}
	if tags := pushes[0][3].Tags; len(tags) != 1 || tags[0] != protocol.TagDeprecated {
		t.Fatalf("deprecated use must be tagged deprecated, got %v", tags)
	}
	for _, d := range pushes[0] {
		if d.Source != Source {
			t.Fatalf("unexpected source %q", d.Source)
		}
	}
}

func TestInvalidConfigurationIsReported(t *testing.T) {
	h := newHarness(t, "")
	h.raw("workspace/didChangeConfiguration", `{"settings":{"wordls":{"maxLineLength":"wide"}}}`)
	res := h.run(Options{})
	var logged bool
	for _, msg := range res.sent {
		if msg.Method == "window/logMessage" {
			logged = true
		}
	}
	if !logged {
		t.Fatal("expected a window/logMessage for bad settings")
	}
}

func TestChangeRevalidatesAndCloseClears(t *testing.T) {
	h := newHarness(t, "")
	h.open("file:///c.txt", "a \n")
	h.raw("textDocument/didChange", `{"textDocument":{"uri":"file:///c.txt","version":2},"contentChanges":[
		{"range":{"start":{"line":0,"character":1},"end":{"line":0,"character":2}},"text":""}]}`)
	h.close("file:///c.txt")
	res := h.run(Options{})

	pushes := res.pushes(t, "file:///c.txt")
	if len(pushes) != 3 {
		t.Fatalf("expected open, change and close pushes, got %d", len(pushes))
	}
	if len(pushes[0]) != 1 || *pushes[0][0].Code != CodeTrailingWhitespace {
		t.Fatalf("unexpected initial diagnostics %+v", pushes[0])
	}
	if len(pushes[1]) != 0 || len(pushes[2]) != 0 {
		t.Fatalf("diagnostics must be replaced, got %+v / %+v", pushes[1], pushes[2])
	}
}

func TestAllowedDirectories(t *testing.T) {
	root := t.TempDir()
	extra := t.TempDir()
	inside := protocol.PathToURI(filepath.Join(root, "in.txt"))
	alsoInside := protocol.PathToURI(filepath.Join(extra, "lib.txt"))
	outside := protocol.PathToURI(filepath.Join(t.TempDir(), "out.txt"))

	h := newHarness(t, protocol.PathToURI(root))
	h.open(inside, "let v \n")
	h.open(alsoInside, "v \n")
	h.open(outside, "v \n")
	def := h.at("textDocument/definition", outside, 0, 0)
	res := h.run(Options{AllowedDirs: []string{extra}})

	if len(res.pushes(t, inside)) != 1 || len(res.pushes(t, alsoInside)) != 1 {
		t.Fatal("documents inside the allowed directories must be validated")
	}
	if n := len(res.pushes(t, outside)); n != 0 {
		t.Fatalf("document outside the allowed directories got %d pushes", n)
	}
	if got := res.locations(t, def); len(got) != 0 {
		t.Fatalf("unindexed document must not resolve, got %v", got)
	}
}

func TestServerInfo(t *testing.T) {
	h := newHarness(t, "")
	res := h.run(Options{Name: "words", Version: "1.2.3"})
	info, _ := res.response(t, 1).Result.Get("serverInfo")
	name, _ := info.Get("name")
	version, _ := info.Get("version")
	if !name.Equal(jsonrpc.String("words")) || !version.Equal(jsonrpc.String("1.2.3")) {
		t.Fatalf("unexpected serverInfo %s", info)
	}
}
