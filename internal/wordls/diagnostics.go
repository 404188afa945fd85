package wordls

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"lspkit/internal/protocol"
	"lspkit/internal/trace"
	"lspkit/internal/vfs"
)

// Diagnostic codes reported by the engine.
const (
	CodeDuplicateDefinition = 1001
	CodeLineTooLong         = 1002
	CodeTrailingWhitespace  = 1003
	CodeMarker              = 1004
	CodeDeprecated          = 1005
)

// Source is the diagnostic source attached to every report.
const Source = "wordls"

func code(c int) *int { return &c }

// checker computes diagnostics for one document. It only reads the index and
// the document, so several checkers may run at once.
type checker struct {
	settings   Settings
	index      *Index
	deprecated map[string]bool
}

func (c *checker) run(doc *vfs.Document) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	diags = append(diags, c.duplicates(doc)...)
	for n := 0; n < doc.LineCount(); n++ {
		diags = append(diags, c.lineChecks(doc, n)...)
	}
	diags = append(diags, c.deprecatedUses(doc)...)
	return diags
}

func (c *checker) duplicates(doc *vfs.Document) []protocol.Diagnostic {
	var diags []protocol.Diagnostic
	first := make(map[string]token)
	for _, tok := range c.index.Tokens(doc.URI()) {
		if !tok.Def {
			continue
		}
		prev, seen := first[tok.Name]
		if !seen {
			first[tok.Name] = tok
			continue
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    doc.RangeOf(tok.Start, tok.End),
			Severity: protocol.SeverityError,
			Code:     code(CodeDuplicateDefinition),
			Source:   Source,
			Message:  fmt.Sprintf("duplicate definition of %q", tok.Name),
			RelatedInformation: []protocol.DiagnosticRelatedInformation{{
				Location: protocol.Location{URI: doc.URI(), Range: doc.RangeOf(prev.Start, prev.End)},
				Message:  fmt.Sprintf("first definition of %q", tok.Name),
			}},
		})
	}
	return diags
}

func (c *checker) lineChecks(doc *vfs.Document, n int) []protocol.Diagnostic {
	line, _ := doc.Line(n)
	start, err := doc.Offset(protocol.Position{Line: n})
	if err != nil {
		return nil
	}
	var diags []protocol.Diagnostic

	if c.settings.MaxLineLength > 0 {
		width := doc.PositionAt(start + len(line)).Character
		if width > c.settings.MaxLineLength {
			diags = append(diags, protocol.Diagnostic{
				Range: protocol.Range{
					Start: protocol.Position{Line: n, Character: c.settings.MaxLineLength},
					End:   protocol.Position{Line: n, Character: width},
				},
				Severity: protocol.SeverityWarning,
				Code:     code(CodeLineTooLong),
				Source:   Source,
				Message:  fmt.Sprintf("line is %d characters long, limit is %d", width, c.settings.MaxLineLength),
			})
		}
	}

	if trimmed := strings.TrimRight(line, " \t"); len(trimmed) < len(line) {
		diags = append(diags, protocol.Diagnostic{
			Range:    doc.RangeOf(start+len(trimmed), start+len(line)),
			Severity: protocol.SeverityHint,
			Code:     code(CodeTrailingWhitespace),
			Source:   Source,
			Message:  "trailing whitespace",
			Tags:     []protocol.DiagnosticTag{protocol.TagUnnecessary},
		})
	}

	for _, marker := range c.settings.Markers {
		for from := 0; ; {
			at := strings.Index(line[from:], marker)
			if at < 0 {
				break
			}
			at += from
			diags = append(diags, protocol.Diagnostic{
				Range:    doc.RangeOf(start+at, start+at+len(marker)),
				Severity: protocol.SeverityInformation,
				Code:     code(CodeMarker),
				Source:   Source,
				Message:  fmt.Sprintf("%s marker", marker),
			})
			from = at + len(marker)
		}
	}
	return diags
}

func (c *checker) deprecatedUses(doc *vfs.Document) []protocol.Diagnostic {
	var diags []protocol.Diagnostic
	for _, tok := range c.index.Tokens(doc.URI()) {
		if tok.Def || !c.deprecated[tok.Name] {
			continue
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    doc.RangeOf(tok.Start, tok.End),
			Severity: protocol.SeverityHint,
			Code:     code(CodeDeprecated),
			Source:   Source,
			Message:  fmt.Sprintf("%q is deprecated", tok.Name),
			Tags:     []protocol.DiagnosticTag{protocol.TagDeprecated},
		})
	}
	return diags
}

// deprecatedNames collects definitions whose line mentions "deprecated".
func (e *Engine) deprecatedNames() map[string]bool {
	out := make(map[string]bool)
	docs := e.client.Documents()
	for _, uri := range e.index.URIs() {
		doc, ok := docs.Get(uri)
		if !ok {
			continue
		}
		for _, tok := range e.index.Tokens(uri) {
			if !tok.Def {
				continue
			}
			line, _ := doc.Line(doc.PositionAt(tok.Start).Line)
			if strings.Contains(strings.ToLower(line), "deprecated") {
				out[tok.Name] = true
			}
		}
	}
	return out
}

func (e *Engine) newChecker() *checker {
	return &checker{settings: e.settings, index: e.index, deprecated: e.deprecatedNames()}
}

// validate publishes diagnostics for one open document.
func (e *Engine) validate(uri string) error {
	doc, ok := e.client.Documents().Get(uri)
	if !ok || !doc.IsOpen() || !e.index.Has(uri) {
		return nil
	}
	return e.client.PushDiagnostics(uri, doc.VersionPtr(), e.newChecker().run(doc))
}

// validateAll recomputes diagnostics for every open indexed document. The
// checks run concurrently; results are published in URI order from the
// calling goroutine.
func (e *Engine) validateAll(ctx context.Context) error {
	ctx, span := trace.Start(ctx, trace.ScopeHandler, "validateAll")

	docs := e.client.Documents()
	var open []*vfs.Document
	for _, uri := range e.index.URIs() {
		if doc, ok := docs.Get(uri); ok && doc.IsOpen() {
			open = append(open, doc)
		}
	}
	if len(open) == 0 {
		span.End("nothing open")
		return nil
	}

	jobs := e.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	check := e.newChecker()
	results := make([][]protocol.Diagnostic, len(open))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(open)))
	for i, doc := range open {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = check.run(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End(err.Error())
		return err
	}

	for i, doc := range open {
		if err := e.client.PushDiagnostics(doc.URI(), doc.VersionPtr(), results[i]); err != nil {
			span.End(err.Error())
			return err
		}
	}
	span.WithExtra("documents", fmt.Sprint(len(open))).End("")
	return nil
}
