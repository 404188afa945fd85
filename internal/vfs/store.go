// Package vfs holds the server's in-memory view of the client's documents.
//
// The store is owned by the protocol loop and is not safe for concurrent
// mutation. Closed documents stay in the store: other documents may still
// refer to them.
package vfs

import (
	"errors"
	"fmt"
	"sort"

	"lspkit/internal/protocol"
)

var (
	// ErrUnknownDocument reports an operation on a URI that was never opened.
	ErrUnknownDocument = errors.New("unknown document")
	// ErrInvalidRange reports an edit range outside the current content.
	ErrInvalidRange = errors.New("invalid range")
)

// Document is one client document. Its fields are read through accessors so
// that holders of a *Document cannot change store state.
type Document struct {
	uri        string
	languageID string
	version    *int
	text       string
	starts     []int
	open       bool
}

// URI returns the document URI.
func (d *Document) URI() string { return d.uri }

// LanguageID returns the client-supplied language identifier.
func (d *Document) LanguageID() string { return d.languageID }

// Version returns the last version the client supplied, if any.
func (d *Document) Version() (int, bool) {
	if d.version == nil {
		return 0, false
	}
	return *d.version, true
}

// VersionPtr returns a copy of the version suitable for optional fields.
func (d *Document) VersionPtr() *int {
	if d.version == nil {
		return nil
	}
	v := *d.version
	return &v
}

// Text returns the full content.
func (d *Document) Text() string { return d.text }

// IsOpen reports whether the client currently has the document open.
func (d *Document) IsOpen() bool { return d.open }

// LineCount returns the number of lines, counting a trailing empty line.
func (d *Document) LineCount() int { return len(d.starts) }

// Line returns the text of line n without its terminator.
func (d *Document) Line(n int) (string, bool) {
	if n < 0 || n >= len(d.starts) {
		return "", false
	}
	return d.text[d.starts[n]:lineEnd(d.text, d.starts, n)], true
}

// Offset converts a position to a byte offset, failing with ErrInvalidRange.
func (d *Document) Offset(pos protocol.Position) (int, error) {
	return offsetAt(d.text, d.starts, pos)
}

// PositionAt converts a byte offset to a position, clamping to the content.
func (d *Document) PositionAt(offset int) protocol.Position {
	return positionAt(d.text, d.starts, offset)
}

// RangeOf converts a byte span to a range.
func (d *Document) RangeOf(start, end int) protocol.Range {
	return protocol.Range{Start: d.PositionAt(start), End: d.PositionAt(end)}
}

func (d *Document) setText(text string) {
	d.text = text
	d.starts = lineStarts(text)
}

func (d *Document) setVersion(version *int) {
	if version == nil {
		return
	}
	v := *version
	d.version = &v
}

// Store maps URIs to documents.
type Store struct {
	docs map[string]*Document
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open records a document opened by the client. Re-opening a known URI
// replaces its content and version unconditionally.
func (s *Store) Open(uri, languageID string, version int, text string) *Document {
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{uri: uri}
		s.docs[uri] = doc
	}
	doc.languageID = languageID
	doc.setVersion(&version)
	doc.setText(text)
	doc.open = true
	return doc
}

// ApplyFull replaces the whole content of uri.
func (s *Store) ApplyFull(uri string, version *int, text string) error {
	doc, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	doc.setText(text)
	doc.setVersion(version)
	return nil
}

// ApplyRange replaces the text inside r. The document is left untouched when r
// does not fit the current content.
func (s *Store) ApplyRange(uri string, version *int, r protocol.Range, text string) error {
	doc, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	updated, err := splice(doc.text, r, text)
	if err != nil {
		return fmt.Errorf("%s: %w", uri, err)
	}
	doc.setText(updated)
	doc.setVersion(version)
	return nil
}

// CheckChanges dry-runs a didChange batch against the current content and
// reports the first change that would fail. Nothing is modified.
func (s *Store) CheckChanges(uri string, changes []protocol.ContentChange) error {
	doc, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	text := doc.text
	for i, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		updated, err := splice(text, *change.Range, change.Text)
		if err != nil {
			return fmt.Errorf("%s: change %d: %w", uri, i, err)
		}
		text = updated
	}
	return nil
}

// ApplyChanges applies a didChange batch in order. Either every change is
// applied or the document keeps its previous content and version.
func (s *Store) ApplyChanges(uri string, version *int, changes []protocol.ContentChange) error {
	if err := s.CheckChanges(uri, changes); err != nil {
		return err
	}
	for _, change := range changes {
		var err error
		if change.Range == nil {
			err = s.ApplyFull(uri, version, change.Text)
		} else {
			err = s.ApplyRange(uri, version, *change.Range, change.Text)
		}
		if err != nil {
			return err
		}
	}
	if len(changes) == 0 {
		s.docs[uri].setVersion(version)
	}
	return nil
}

// Close marks uri closed. Its content is retained.
func (s *Store) Close(uri string) error {
	doc, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	doc.open = false
	return nil
}

// Get returns the document stored for uri, open or closed.
func (s *Store) Get(uri string) (*Document, bool) {
	doc, ok := s.docs[uri]
	return doc, ok
}

// URIs lists every known URI in sorted order.
func (s *Store) URIs() []string {
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known documents.
func (s *Store) Len() int { return len(s.docs) }
