package protocol

import (
	"fmt"

	"lspkit/internal/jsonrpc"
)

// Value encodes p.
func (p Position) Value() jsonrpc.Value {
	return jsonrpc.Object(
		jsonrpc.Field("line", jsonrpc.Int(p.Line)),
		jsonrpc.Field("character", jsonrpc.Int(p.Character)),
	)
}

// Value encodes r.
func (r Range) Value() jsonrpc.Value {
	return jsonrpc.Object(
		jsonrpc.Field("start", r.Start.Value()),
		jsonrpc.Field("end", r.End.Value()),
	)
}

// Value encodes l.
func (l Location) Value() jsonrpc.Value {
	return jsonrpc.Object(
		jsonrpc.Field("uri", jsonrpc.String(l.URI)),
		jsonrpc.Field("range", l.Range.Value()),
	)
}

// Value encodes h. An unspecified kind is omitted.
func (h DocumentHighlight) Value() jsonrpc.Value {
	v := jsonrpc.Object(jsonrpc.Field("range", h.Range.Value()))
	if h.Kind != HighlightUnspecified {
		v = v.With("kind", jsonrpc.Int(int(h.Kind)))
	}
	return v
}

// Value encodes d, omitting unset optional fields.
func (d Diagnostic) Value() jsonrpc.Value {
	v := jsonrpc.Object(jsonrpc.Field("range", d.Range.Value()))
	if d.Severity != 0 {
		v = v.With("severity", jsonrpc.Int(int(d.Severity)))
	}
	if d.Code != nil {
		v = v.With("code", jsonrpc.Int(*d.Code))
	}
	if d.Source != "" {
		v = v.With("source", jsonrpc.String(d.Source))
	}
	v = v.With("message", jsonrpc.String(d.Message))
	if len(d.Tags) > 0 {
		tags := make([]jsonrpc.Value, 0, len(d.Tags))
		for _, tag := range d.Tags {
			tags = append(tags, jsonrpc.Int(int(tag)))
		}
		v = v.With("tags", jsonrpc.Array(tags...))
	}
	if len(d.RelatedInformation) > 0 {
		related := make([]jsonrpc.Value, 0, len(d.RelatedInformation))
		for _, info := range d.RelatedInformation {
			related = append(related, jsonrpc.Object(
				jsonrpc.Field("location", info.Location.Value()),
				jsonrpc.Field("message", jsonrpc.String(info.Message)),
			))
		}
		v = v.With("relatedInformation", jsonrpc.Array(related...))
	}
	return v
}

// Value encodes id as the serverInfo object.
func (id ServerID) Value() jsonrpc.Value {
	v := jsonrpc.Object(jsonrpc.Field("name", jsonrpc.String(id.Name)))
	if id.Version != "" {
		v = v.With("version", jsonrpc.String(id.Version))
	}
	return v
}

// Locations encodes a location list; nil encodes as an empty array.
func Locations(locs []Location) jsonrpc.Value {
	items := make([]jsonrpc.Value, 0, len(locs))
	for _, l := range locs {
		items = append(items, l.Value())
	}
	return jsonrpc.Array(items...)
}

// Highlights encodes a highlight list; nil encodes as an empty array.
func Highlights(hs []DocumentHighlight) jsonrpc.Value {
	items := make([]jsonrpc.Value, 0, len(hs))
	for _, h := range hs {
		items = append(items, h.Value())
	}
	return jsonrpc.Array(items...)
}

// PositionFromValue decodes a position object.
func PositionFromValue(v jsonrpc.Value) (Position, error) {
	line, err := requireInt(v, "line")
	if err != nil {
		return Position{}, err
	}
	character, err := requireInt(v, "character")
	if err != nil {
		return Position{}, err
	}
	if line < 0 || character < 0 {
		return Position{}, fmt.Errorf("negative position %d:%d", line, character)
	}
	return Position{Line: line, Character: character}, nil
}

// RangeFromValue decodes a range object.
func RangeFromValue(v jsonrpc.Value) (Range, error) {
	startVal, err := requireField(v, "start")
	if err != nil {
		return Range{}, err
	}
	start, err := PositionFromValue(startVal)
	if err != nil {
		return Range{}, fmt.Errorf("start: %w", err)
	}
	endVal, err := requireField(v, "end")
	if err != nil {
		return Range{}, err
	}
	end, err := PositionFromValue(endVal)
	if err != nil {
		return Range{}, fmt.Errorf("end: %w", err)
	}
	return Range{Start: start, End: end}, nil
}

// LocationFromValue decodes a location object.
func LocationFromValue(v jsonrpc.Value) (Location, error) {
	uri, err := requireString(v, "uri")
	if err != nil {
		return Location{}, err
	}
	rv, err := requireField(v, "range")
	if err != nil {
		return Location{}, err
	}
	r, err := RangeFromValue(rv)
	if err != nil {
		return Location{}, fmt.Errorf("range: %w", err)
	}
	return Location{URI: uri, Range: r}, nil
}

// DiagnosticFromValue decodes a diagnostic object.
func DiagnosticFromValue(v jsonrpc.Value) (Diagnostic, error) {
	rv, err := requireField(v, "range")
	if err != nil {
		return Diagnostic{}, err
	}
	r, err := RangeFromValue(rv)
	if err != nil {
		return Diagnostic{}, fmt.Errorf("range: %w", err)
	}
	message, err := requireString(v, "message")
	if err != nil {
		return Diagnostic{}, err
	}
	d := Diagnostic{Range: r, Message: message}
	if sv, ok := v.Get("severity"); ok {
		n, err := sv.AsInt()
		if err != nil {
			return Diagnostic{}, fmt.Errorf("severity: %w", err)
		}
		d.Severity = DiagnosticSeverity(n)
	}
	if cv, ok := v.Get("code"); ok {
		n, err := cv.AsInt()
		if err != nil {
			return Diagnostic{}, fmt.Errorf("code: %w", err)
		}
		d.Code = &n
	}
	if src, ok := v.Get("source"); ok {
		d.Source, _ = src.AsString()
	}
	if tv, ok := v.Get("tags"); ok {
		for _, item := range tv.Items() {
			n, err := item.AsInt()
			if err != nil {
				return Diagnostic{}, fmt.Errorf("tags: %w", err)
			}
			d.Tags = append(d.Tags, DiagnosticTag(n))
		}
	}
	if rel, ok := v.Get("relatedInformation"); ok {
		for _, item := range rel.Items() {
			lv, err := requireField(item, "location")
			if err != nil {
				return Diagnostic{}, fmt.Errorf("relatedInformation: %w", err)
			}
			loc, err := LocationFromValue(lv)
			if err != nil {
				return Diagnostic{}, fmt.Errorf("relatedInformation: %w", err)
			}
			msg, err := requireString(item, "message")
			if err != nil {
				return Diagnostic{}, fmt.Errorf("relatedInformation: %w", err)
			}
			d.RelatedInformation = append(d.RelatedInformation, DiagnosticRelatedInformation{Location: loc, Message: msg})
		}
	}
	return d, nil
}

func requireField(v jsonrpc.Value, key string) (jsonrpc.Value, error) {
	if v.Kind() != jsonrpc.KindObject {
		return jsonrpc.Value{}, fmt.Errorf("expected object, got %s", v.Kind())
	}
	field, ok := v.Get(key)
	if !ok {
		return jsonrpc.Value{}, fmt.Errorf("missing %q", key)
	}
	return field, nil
}

func requireString(v jsonrpc.Value, key string) (string, error) {
	field, err := requireField(v, key)
	if err != nil {
		return "", err
	}
	s, ok := field.AsString()
	if !ok {
		return "", fmt.Errorf("%q: expected string, got %s", key, field.Kind())
	}
	return s, nil
}

func requireInt(v jsonrpc.Value, key string) (int, error) {
	field, err := requireField(v, key)
	if err != nil {
		return 0, err
	}
	n, err := field.AsInt()
	if err != nil {
		return 0, fmt.Errorf("%q: %w", key, err)
	}
	return n, nil
}

// optionalInt returns nil when key is absent or null.
func optionalInt(v jsonrpc.Value, key string) (*int, error) {
	field, ok := v.Get(key)
	if !ok || field.IsNull() {
		return nil, nil
	}
	n, err := field.AsInt()
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return &n, nil
}
