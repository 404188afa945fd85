package trace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vmihailenco/msgpack/v5"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto    Format = iota // pick from the output path
	FormatText                  // human-readable text
	FormatNDJSON                // newline-delimited JSON
	FormatMsgpack               // concatenated msgpack records
)

// nameWidth is the display column width reserved for event names in text output.
const nameWidth = 32

type record struct {
	Time     string            `json:"time" msgpack:"time"`
	Seq      uint64            `json:"seq" msgpack:"seq"`
	Kind     string            `json:"kind" msgpack:"kind"`
	Scope    string            `json:"scope" msgpack:"scope"`
	SpanID   uint64            `json:"span_id" msgpack:"span_id"`
	ParentID uint64            `json:"parent_id,omitempty" msgpack:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty" msgpack:"gid,omitempty"`
	Name     string            `json:"name" msgpack:"name"`
	Detail   string            `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty" msgpack:"extra,omitempty"`
}

func toRecord(ev *Event) record {
	return record{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	}
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatMsgpack:
		return formatMsgpack(ev)
	default:
		return formatText(ev)
	}
}

// DecodeMsgpack decodes one record written in FormatMsgpack. It is used by
// tooling that reads ring dumps back.
func DecodeMsgpack(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func formatNDJSON(ev *Event) []byte {
	data, _ := json.Marshal(toRecord(ev))
	data = append(data, '\n')
	return data
}

func formatMsgpack(ev *Event) []byte {
	data, err := msgpack.Marshal(toRecord(ev))
	if err != nil {
		return nil
	}
	return data
}

// formatText formats an event as human-readable text.
// Format: [seq] [indent]→/← name (detail) {extra}
func formatText(ev *Event) []byte {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%6d] ", ev.Seq))

	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}

	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ") // →
	case KindSpanEnd:
		sb.WriteString("← ") // ←
	case KindPoint:
		sb.WriteString("• ") // •
	case KindHeartbeat:
		sb.WriteString("♡ ") // ♡
	case KindFailure:
		sb.WriteString("✗ ")
	}

	sb.WriteString(runewidth.FillRight(ev.Name, nameWidth))

	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}

	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
