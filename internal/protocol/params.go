package protocol

import (
	"fmt"

	"lspkit/internal/jsonrpc"
)

// InitializeParams is the subset of initialize parameters the server reads.
type InitializeParams struct {
	RootURI          string
	WorkspaceFolders []WorkspaceFolder
	Trace            *Trace
}

// DecodeInitializeParams reads rootUri (falling back to rootPath),
// workspaceFolders and trace. All fields are optional.
func DecodeInitializeParams(v jsonrpc.Value) (InitializeParams, error) {
	var params InitializeParams
	if v.IsNull() {
		return params, nil
	}
	if v.Kind() != jsonrpc.KindObject {
		return params, fmt.Errorf("expected object, got %s", v.Kind())
	}
	if root, ok := v.Get("rootUri"); ok && !root.IsNull() {
		s, isStr := root.AsString()
		if !isStr {
			return params, fmt.Errorf("\"rootUri\": expected string, got %s", root.Kind())
		}
		params.RootURI = s
	}
	if params.RootURI == "" {
		if rootPath, ok := v.Get("rootPath"); ok {
			if s, isStr := rootPath.AsString(); isStr && s != "" {
				params.RootURI = PathToURI(s)
			}
		}
	}
	if folders, ok := v.Get("workspaceFolders"); ok && !folders.IsNull() {
		if folders.Kind() != jsonrpc.KindArray {
			return params, fmt.Errorf("\"workspaceFolders\": expected array, got %s", folders.Kind())
		}
		for i, item := range folders.Items() {
			uri, err := requireString(item, "uri")
			if err != nil {
				return params, fmt.Errorf("workspaceFolders[%d]: %w", i, err)
			}
			name, err := requireString(item, "name")
			if err != nil {
				return params, fmt.Errorf("workspaceFolders[%d]: %w", i, err)
			}
			params.WorkspaceFolders = append(params.WorkspaceFolders, WorkspaceFolder{Name: name, URI: uri})
		}
	}
	if tv, ok := v.Get("trace"); ok && !tv.IsNull() {
		s, _ := tv.AsString()
		level, err := ParseTrace(s)
		if err != nil {
			return params, err
		}
		params.Trace = &level
	}
	return params, nil
}

// TextDocumentSyncIncremental is the sync kind advertised to clients.
const TextDocumentSyncIncremental = 2

// InitializeResult encodes the initialize response.
func InitializeResult(id ServerID) jsonrpc.Value {
	capabilities := jsonrpc.Object(
		jsonrpc.Field("textDocumentSync", jsonrpc.Object(
			jsonrpc.Field("openClose", jsonrpc.Bool(true)),
			jsonrpc.Field("change", jsonrpc.Int(TextDocumentSyncIncremental)),
		)),
		jsonrpc.Field("definitionProvider", jsonrpc.Bool(true)),
		jsonrpc.Field("documentHighlightProvider", jsonrpc.Bool(true)),
		jsonrpc.Field("referencesProvider", jsonrpc.Bool(true)),
	)
	return jsonrpc.Object(
		jsonrpc.Field("capabilities", capabilities),
		jsonrpc.Field("serverInfo", id.Value()),
	)
}

// DidOpenParams carries a newly opened document.
type DidOpenParams struct {
	URI        string
	LanguageID string
	Version    int
	Text       string
}

// DecodeDidOpenParams reads textDocument/didOpen parameters.
func DecodeDidOpenParams(v jsonrpc.Value) (DidOpenParams, error) {
	doc, err := requireField(v, "textDocument")
	if err != nil {
		return DidOpenParams{}, err
	}
	uri, err := requireString(doc, "uri")
	if err != nil {
		return DidOpenParams{}, err
	}
	languageID, err := requireString(doc, "languageId")
	if err != nil {
		return DidOpenParams{}, err
	}
	version, err := requireInt(doc, "version")
	if err != nil {
		return DidOpenParams{}, err
	}
	text, err := requireString(doc, "text")
	if err != nil {
		return DidOpenParams{}, err
	}
	return DidOpenParams{URI: uri, LanguageID: languageID, Version: version, Text: text}, nil
}

// DidChangeParams carries edits to an open document.
type DidChangeParams struct {
	URI     string
	Version *int
	Changes []ContentChange
}

// DecodeDidChangeParams reads textDocument/didChange parameters.
func DecodeDidChangeParams(v jsonrpc.Value) (DidChangeParams, error) {
	doc, err := requireField(v, "textDocument")
	if err != nil {
		return DidChangeParams{}, err
	}
	uri, err := requireString(doc, "uri")
	if err != nil {
		return DidChangeParams{}, err
	}
	version, err := optionalInt(doc, "version")
	if err != nil {
		return DidChangeParams{}, err
	}
	changesVal, err := requireField(v, "contentChanges")
	if err != nil {
		return DidChangeParams{}, err
	}
	if changesVal.Kind() != jsonrpc.KindArray {
		return DidChangeParams{}, fmt.Errorf("\"contentChanges\": expected array, got %s", changesVal.Kind())
	}
	params := DidChangeParams{URI: uri, Version: version}
	for i, item := range changesVal.Items() {
		text, err := requireString(item, "text")
		if err != nil {
			return DidChangeParams{}, fmt.Errorf("contentChanges[%d]: %w", i, err)
		}
		change := ContentChange{Text: text}
		if rv, ok := item.Get("range"); ok && !rv.IsNull() {
			r, err := RangeFromValue(rv)
			if err != nil {
				return DidChangeParams{}, fmt.Errorf("contentChanges[%d].range: %w", i, err)
			}
			change.Range = &r
		}
		params.Changes = append(params.Changes, change)
	}
	return params, nil
}

// DecodeTextDocumentURI reads params.textDocument.uri (didClose and friends).
func DecodeTextDocumentURI(v jsonrpc.Value) (string, error) {
	doc, err := requireField(v, "textDocument")
	if err != nil {
		return "", err
	}
	return requireString(doc, "uri")
}

// DecodeDocumentPosition reads TextDocumentPositionParams.
func DecodeDocumentPosition(v jsonrpc.Value) (DocumentPosition, error) {
	uri, err := DecodeTextDocumentURI(v)
	if err != nil {
		return DocumentPosition{}, err
	}
	pv, err := requireField(v, "position")
	if err != nil {
		return DocumentPosition{}, err
	}
	pos, err := PositionFromValue(pv)
	if err != nil {
		return DocumentPosition{}, fmt.Errorf("position: %w", err)
	}
	return DocumentPosition{URI: uri, Position: pos}, nil
}

// DecodeSettings returns params.settings of didChangeConfiguration, or null.
func DecodeSettings(v jsonrpc.Value) jsonrpc.Value {
	settings, _ := v.Get("settings")
	return settings
}

// DecodeSetTrace reads the value of a $/setTrace notification.
func DecodeSetTrace(v jsonrpc.Value) (Trace, error) {
	s, err := requireString(v, "value")
	if err != nil {
		return TraceOff, err
	}
	return ParseTrace(s)
}

// PublishDiagnosticsParams is the payload of textDocument/publishDiagnostics.
type PublishDiagnosticsParams struct {
	URI         string
	Version     *int
	Diagnostics []Diagnostic
}

// Value encodes p; diagnostics are always present, possibly empty.
func (p PublishDiagnosticsParams) Value() jsonrpc.Value {
	v := jsonrpc.Object(jsonrpc.Field("uri", jsonrpc.String(p.URI)))
	if p.Version != nil {
		v = v.With("version", jsonrpc.Int(*p.Version))
	}
	items := make([]jsonrpc.Value, 0, len(p.Diagnostics))
	for _, d := range p.Diagnostics {
		items = append(items, d.Value())
	}
	return v.With("diagnostics", jsonrpc.Array(items...))
}

// DecodePublishDiagnosticsParams is the client-side reader of Value.
func DecodePublishDiagnosticsParams(v jsonrpc.Value) (PublishDiagnosticsParams, error) {
	uri, err := requireString(v, "uri")
	if err != nil {
		return PublishDiagnosticsParams{}, err
	}
	version, err := optionalInt(v, "version")
	if err != nil {
		return PublishDiagnosticsParams{}, err
	}
	list, err := requireField(v, "diagnostics")
	if err != nil {
		return PublishDiagnosticsParams{}, err
	}
	params := PublishDiagnosticsParams{URI: uri, Version: version, Diagnostics: []Diagnostic{}}
	for i, item := range list.Items() {
		d, err := DiagnosticFromValue(item)
		if err != nil {
			return PublishDiagnosticsParams{}, fmt.Errorf("diagnostics[%d]: %w", i, err)
		}
		params.Diagnostics = append(params.Diagnostics, d)
	}
	return params, nil
}
