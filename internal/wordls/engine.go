package wordls

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/lsp"
	"lspkit/internal/protocol"
	"lspkit/internal/vfs"
)

// Options configures an Engine.
type Options struct {
	Name     string
	Version  string
	Settings Settings
	// AllowedDirs extends the workspace root and folders with further
	// directories whose files may be indexed.
	AllowedDirs []string
	// Jobs bounds concurrent diagnostic runs; zero means GOMAXPROCS.
	Jobs int
}

// Engine implements lsp.Engine on top of a word index.
type Engine struct {
	lsp.BaseEngine

	client   lsp.Client
	settings Settings
	extra    []string
	allowed  []string
	index    *Index
	jobs     int
}

// New returns an engine; call it once per connection.
func New(opts Options) *Engine {
	name := opts.Name
	if name == "" {
		name = "wordls"
	}
	settings := opts.Settings
	if settings.MaxLineLength == 0 && settings.Markers == nil {
		settings = DefaultSettings()
	}
	return &Engine{
		BaseEngine: lsp.BaseEngine{Name: name, Version: opts.Version},
		settings:   settings,
		extra:      opts.AllowedDirs,
		index:      NewIndex(),
		jobs:       opts.Jobs,
	}
}

// Settings returns the settings in effect.
func (e *Engine) Settings() Settings { return e.settings }

// AllowedDirs returns the directories whose files are indexed, sorted. An
// empty result means every file is allowed.
func (e *Engine) AllowedDirs() []string { return e.allowed }

func (e *Engine) Initialize(ctx context.Context, client lsp.Client, rootURI string, folders []protocol.WorkspaceFolder) (protocol.ServerID, error) {
	e.client = client

	var dirs []string
	if root := protocol.URIToPath(rootURI); root != "" {
		dirs = append(dirs, root)
	}
	for _, f := range folders {
		if path := protocol.URIToPath(f.URI); path != "" {
			dirs = append(dirs, path)
		}
	}
	for _, dir := range e.extra {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return protocol.ServerID{}, fmt.Errorf("allowed directory %q: %w", dir, err)
		}
		dirs = append(dirs, abs)
	}
	e.allowed = dedupeSorted(dirs)
	return e.BaseEngine.Initialize(ctx, client, rootURI, folders)
}

func (e *Engine) Initialized(context.Context) error {
	if len(e.allowed) == 0 {
		e.client.Log("wordls: no workspace root, indexing every document")
		return nil
	}
	e.client.Log("wordls: indexing documents under " + strings.Join(e.allowed, ", "))
	return nil
}

func (e *Engine) ChangeConfiguration(ctx context.Context, settings jsonrpc.Value) error {
	merged, err := e.settings.merge(settings)
	if err != nil {
		return err
	}
	e.settings = merged
	e.client.Trace(fmt.Sprintf("wordls: maxLineLength=%d markers=%v", merged.MaxLineLength, merged.Markers))
	return e.validateAll(ctx)
}

func (e *Engine) DocumentOpened(_ context.Context, uri, _ string, _ int, _ string) error {
	if !e.reindex(uri) {
		return nil
	}
	return e.validate(uri)
}

func (e *Engine) DocumentReplaced(_ context.Context, uri string, version *int, text string) error {
	e.client.Trace(fmt.Sprintf("wordls: %s replaced (%d bytes, version %s)", uri, len(text), versionString(version)))
	return nil
}

func (e *Engine) DocumentPatched(_ context.Context, uri string, version *int, r protocol.Range, text string) error {
	e.client.Trace(fmt.Sprintf("wordls: %s patched at %s with %d bytes (version %s)", uri, r, len(text), versionString(version)))
	return nil
}

func (e *Engine) DocumentChanged(ctx context.Context, uri string) error {
	if !e.reindex(uri) {
		return nil
	}
	return e.validateAll(ctx)
}

// DocumentClosed clears the document's diagnostics. Its tokens stay indexed.
func (e *Engine) DocumentClosed(_ context.Context, uri string) error {
	doc, ok := e.client.Documents().Get(uri)
	if !ok || !e.index.Has(uri) {
		return nil
	}
	return e.client.PushDiagnostics(uri, doc.VersionPtr(), nil)
}

func (e *Engine) GotoDefinition(_ context.Context, pos protocol.DocumentPosition) ([]protocol.Location, error) {
	tok, ok, err := e.tokenAt(pos)
	if err != nil || !ok {
		return nil, err
	}
	return e.locations(e.index.Definitions(tok.Name)), nil
}

func (e *Engine) References(_ context.Context, pos protocol.DocumentPosition) ([]protocol.Location, error) {
	tok, ok, err := e.tokenAt(pos)
	if err != nil || !ok {
		return nil, err
	}
	return e.locations(e.index.Occurrences(tok.Name)), nil
}

// SemanticHighlight marks every occurrence of the word under the cursor in
// the same document: definitions as writes, uses as reads.
func (e *Engine) SemanticHighlight(_ context.Context, pos protocol.DocumentPosition) ([]protocol.DocumentHighlight, error) {
	tok, ok, err := e.tokenAt(pos)
	if err != nil || !ok {
		return nil, err
	}
	doc, _ := e.client.Documents().Get(pos.URI)
	var out []protocol.DocumentHighlight
	for _, other := range e.index.Tokens(pos.URI) {
		if other.Name != tok.Name {
			continue
		}
		kind := protocol.HighlightRead
		if other.Def {
			kind = protocol.HighlightWrite
		}
		out = append(out, protocol.DocumentHighlight{Range: doc.RangeOf(other.Start, other.End), Kind: kind})
	}
	return out, nil
}

// reindex refreshes uri and reports whether it is indexed afterwards.
func (e *Engine) reindex(uri string) bool {
	doc, ok := e.client.Documents().Get(uri)
	if !ok {
		return false
	}
	if !e.isAllowed(uri) {
		e.index.Remove(uri)
		e.client.Trace("wordls: ignoring " + uri + " outside the allowed directories")
		return false
	}
	e.index.Update(uri, doc.Text())
	return true
}

func (e *Engine) tokenAt(pos protocol.DocumentPosition) (token, bool, error) {
	doc, ok := e.client.Documents().Get(pos.URI)
	if !ok {
		return token{}, false, fmt.Errorf("%w: %s", vfs.ErrUnknownDocument, pos.URI)
	}
	offset, err := doc.Offset(pos.Position)
	if err != nil {
		return token{}, false, err
	}
	tok, found := e.index.TokenAt(pos.URI, offset)
	return tok, found, nil
}

func (e *Engine) locations(occs []occurrence) []protocol.Location {
	docs := e.client.Documents()
	out := make([]protocol.Location, 0, len(occs))
	for _, occ := range occs {
		doc, ok := docs.Get(occ.URI)
		if !ok {
			continue
		}
		out = append(out, protocol.Location{URI: occ.URI, Range: doc.RangeOf(occ.Start, occ.End)})
	}
	return out
}

func (e *Engine) isAllowed(uri string) bool {
	if len(e.allowed) == 0 {
		return true
	}
	path := protocol.URIToPath(uri)
	if path == "" {
		return true
	}
	for _, dir := range e.allowed {
		if within(dir, path) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func dedupeSorted(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

func versionString(v *int) string {
	if v == nil {
		return "unchanged"
	}
	return fmt.Sprint(*v)
}
