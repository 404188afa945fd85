package protocol

import (
	"path/filepath"
	"testing"

	"lspkit/internal/jsonrpc"
)

func parse(t *testing.T, raw string) jsonrpc.Value {
	t.Helper()
	v, err := jsonrpc.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return v
}

func TestDiagnosticEncodingOmitsUnsetFields(t *testing.T) {
	d := Diagnostic{
		Range:   Range{Start: Position{Line: 1, Character: 2}, End: Position{Line: 1, Character: 5}},
		Message: "boom",
	}
	want := `{"range":{"start":{"line":1,"character":2},"end":{"line":1,"character":5}},"message":"boom"}`
	if got := d.Value().String(); got != want {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", got, want)
	}
}

func TestDiagnosticFullRoundTrip(t *testing.T) {
	code := 3001
	d := Diagnostic{
		Range:    Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 3}},
		Severity: SeverityWarning,
		Code:     &code,
		Source:   "wordls",
		Message:  "duplicate",
		Tags:     []DiagnosticTag{TagUnnecessary, TagDeprecated},
		RelatedInformation: []DiagnosticRelatedInformation{{
			Location: Location{URI: "file:///a.txt", Range: Range{End: Position{Character: 1}}},
			Message:  "first here",
		}},
	}
	got, err := DiagnosticFromValue(d.Value())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Severity != SeverityWarning || got.Code == nil || *got.Code != code || got.Source != "wordls" {
		t.Fatalf("unexpected diagnostic: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[1] != TagDeprecated {
		t.Fatalf("unexpected tags: %+v", got.Tags)
	}
	if len(got.RelatedInformation) != 1 || got.RelatedInformation[0].Location.URI != "file:///a.txt" {
		t.Fatalf("unexpected related information: %+v", got.RelatedInformation)
	}
}

func TestHighlightKindEncoding(t *testing.T) {
	plain := DocumentHighlight{}
	if _, ok := plain.Value().Get("kind"); ok {
		t.Fatal("unspecified kind must be omitted")
	}
	write := DocumentHighlight{Kind: HighlightWrite}
	kind, _ := write.Value().Get("kind")
	if n, err := kind.AsInt(); err != nil || n != 3 {
		t.Fatalf("expected kind 3, got %v (%v)", kind, err)
	}
}

func TestDecodeInitializeParams(t *testing.T) {
	v := parse(t, `{"rootUri":"file:///ws","workspaceFolders":[{"uri":"file:///ws","name":"ws"}],"trace":"verbose"}`)
	params, err := DecodeInitializeParams(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if params.RootURI != "file:///ws" {
		t.Fatalf("unexpected root: %q", params.RootURI)
	}
	if len(params.WorkspaceFolders) != 1 || params.WorkspaceFolders[0].Name != "ws" {
		t.Fatalf("unexpected folders: %+v", params.WorkspaceFolders)
	}
	if params.Trace == nil || *params.Trace != TraceVerbose {
		t.Fatalf("unexpected trace: %v", params.Trace)
	}

	if _, err := DecodeInitializeParams(parse(t, `{"trace":"loud"}`)); err == nil {
		t.Fatal("expected error for invalid trace")
	}
	if _, err := DecodeInitializeParams(parse(t, `{"workspaceFolders":[{"uri":1}]}`)); err == nil {
		t.Fatal("expected error for malformed folder")
	}
}

func TestDecodeInitializeParamsRootPathFallback(t *testing.T) {
	dir := t.TempDir()
	v := jsonrpc.Object(
		jsonrpc.Field("rootUri", jsonrpc.Null()),
		jsonrpc.Field("rootPath", jsonrpc.String(dir)),
	)
	params, err := DecodeInitializeParams(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := URIToPath(params.RootURI); got != filepath.Clean(dir) {
		t.Fatalf("expected root %q, got %q", dir, got)
	}
}

func TestDecodeDidChangeParams(t *testing.T) {
	v := parse(t, `{"textDocument":{"uri":"file:///a.sol","version":2},"contentChanges":[
		{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"text":"ab"},
		{"text":"full"}]}`)
	params, err := DecodeDidChangeParams(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if params.Version == nil || *params.Version != 2 {
		t.Fatalf("unexpected version: %v", params.Version)
	}
	if len(params.Changes) != 2 || params.Changes[0].Range == nil || params.Changes[1].Range != nil {
		t.Fatalf("unexpected changes: %+v", params.Changes)
	}

	noVersion := parse(t, `{"textDocument":{"uri":"file:///a.sol","version":null},"contentChanges":[]}`)
	params, err = DecodeDidChangeParams(noVersion)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if params.Version != nil {
		t.Fatalf("expected nil version, got %d", *params.Version)
	}
}

func TestDecodeDocumentPositionErrors(t *testing.T) {
	tests := []string{
		`{}`,
		`{"textDocument":{"uri":"file:///a"}}`,
		`{"textDocument":{"uri":"file:///a"},"position":{"line":-1,"character":0}}`,
		`{"textDocument":{"uri":"file:///a"},"position":{"line":0.5,"character":0}}`,
	}
	for _, raw := range tests {
		if _, err := DecodeDocumentPosition(parse(t, raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestPublishDiagnosticsParamsAlwaysCarriesList(t *testing.T) {
	got := PublishDiagnosticsParams{URI: "file:///a"}.Value().String()
	if got != `{"uri":"file:///a","diagnostics":[]}` {
		t.Fatalf("unexpected encoding: %s", got)
	}
}

func TestURIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir with space", "main.sol")
	uri := PathToURI(path)
	if got := URIToPath(uri); got != path {
		t.Fatalf("round trip mismatch: %q -> %q -> %q", path, uri, got)
	}
	if URIToPath("untitled:Untitled-1") != "" {
		t.Fatal("non-file URI must map to empty path")
	}
}

func TestParseTrace(t *testing.T) {
	for in, want := range map[string]Trace{"": TraceOff, "off": TraceOff, "Messages": TraceMessages, "verbose": TraceVerbose} {
		got, err := ParseTrace(in)
		if err != nil || got != want {
			t.Fatalf("ParseTrace(%q) = %v, %v", in, got, err)
		}
	}
}
