package wordls

import (
	"fmt"

	"lspkit/internal/jsonrpc"
)

// Settings tunes the lint checks. Clients change them through
// workspace/didChangeConfiguration under the "wordls" key:
//
//	{"wordls": {"maxLineLength": 100, "markers": ["TODO", "XXX"]}}
type Settings struct {
	// MaxLineLength is measured in UTF-16 code units; zero disables the check.
	MaxLineLength int
	Markers       []string
}

// DefaultSettings returns the settings used until the client sends its own.
func DefaultSettings() Settings {
	return Settings{
		MaxLineLength: 120,
		Markers:       []string{"TODO", "FIXME"},
	}
}

// merge overlays the fields present in a configuration payload.
func (s Settings) merge(v jsonrpc.Value) (Settings, error) {
	section, ok := v.Get("wordls")
	if !ok || section.IsNull() {
		return s, nil
	}
	if section.Kind() != jsonrpc.KindObject {
		return s, fmt.Errorf("wordls settings: expected object, got %s", section.Kind())
	}
	out := s
	if raw, ok := section.Get("maxLineLength"); ok {
		n, err := raw.AsInt()
		if err != nil {
			return s, fmt.Errorf("wordls.maxLineLength: %w", err)
		}
		if n < 0 {
			return s, fmt.Errorf("wordls.maxLineLength: must not be negative, got %d", n)
		}
		out.MaxLineLength = n
	}
	if raw, ok := section.Get("markers"); ok {
		if raw.Kind() != jsonrpc.KindArray {
			return s, fmt.Errorf("wordls.markers: expected array, got %s", raw.Kind())
		}
		markers := make([]string, 0, raw.Len())
		for i, item := range raw.Items() {
			m, isStr := item.AsString()
			if !isStr || m == "" {
				return s, fmt.Errorf("wordls.markers[%d]: expected non-empty string", i)
			}
			markers = append(markers, m)
		}
		out.Markers = markers
	}
	return out, nil
}
