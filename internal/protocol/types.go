// Package protocol defines the LSP data model exchanged between the server and
// its client, together with conversions to and from jsonrpc.Value.
package protocol

import (
	"fmt"
	"strings"
)

// Position is a zero-based line and UTF-16 code unit column.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open span between two positions of the same document.
type Range struct {
	Start Position
	End   Position
}

// Valid reports whether Start does not come after End.
func (r Range) Valid() bool {
	return !r.End.Before(r.Start)
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Location points at a range inside a document.
type Location struct {
	URI   string
	Range Range
}

// DocumentPosition is a cursor position in a document.
type DocumentPosition struct {
	URI      string
	Position Position
}

// DocumentHighlightKind classifies a highlighted occurrence.
type DocumentHighlightKind int

const (
	HighlightUnspecified DocumentHighlightKind = iota
	HighlightText
	HighlightRead
	HighlightWrite
)

// DocumentHighlight is one occurrence of a symbol inside a document.
type DocumentHighlight struct {
	Range Range
	Kind  DocumentHighlightKind
}

// DiagnosticSeverity ranks a diagnostic. Zero means unset.
type DiagnosticSeverity int

const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// DiagnosticTag carries extra rendering metadata.
type DiagnosticTag int

const (
	TagUnnecessary DiagnosticTag = iota + 1
	TagDeprecated
)

// DiagnosticRelatedInformation links a diagnostic to another location.
type DiagnosticRelatedInformation struct {
	Location Location
	Message  string
}

// Diagnostic is a finding attached to a range of one document version.
type Diagnostic struct {
	Range              Range
	Severity           DiagnosticSeverity // 0 when unset
	Code               *int
	Source             string // empty when unset
	Message            string
	Tags               []DiagnosticTag
	RelatedInformation []DiagnosticRelatedInformation
}

// WorkspaceFolder is announced by the client at initialize.
type WorkspaceFolder struct {
	Name string
	URI  string
}

// ServerID identifies the server in the initialize response.
type ServerID struct {
	Name    string
	Version string
}

// Trace is the verbosity of the $/logTrace side channel.
type Trace uint8

const (
	TraceOff Trace = iota
	TraceMessages
	TraceVerbose
)

func (t Trace) String() string {
	switch t {
	case TraceOff:
		return "off"
	case TraceMessages:
		return "messages"
	case TraceVerbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// ParseTrace converts the wire or config spelling of a trace level.
func ParseTrace(s string) (Trace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return TraceOff, nil
	case "messages":
		return TraceMessages, nil
	case "verbose":
		return TraceVerbose, nil
	default:
		return TraceOff, fmt.Errorf("invalid trace value %q (expected off|messages|verbose)", s)
	}
}

// ContentChange is one entry of a didChange notification. A nil Range means
// the whole document is replaced.
type ContentChange struct {
	Range *Range
	Text  string
}
