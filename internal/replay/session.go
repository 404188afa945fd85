// Package replay feeds a recorded client session through a protocol server
// over an in-memory transport and reports what the server sent back.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"lspkit/internal/jsonrpc"
)

// maxLine bounds a single NDJSON record.
const maxLine = 16 << 20

// Load reads one client message per line. Blank lines and lines starting with
// "//" are skipped.
func Load(r io.Reader) ([]jsonrpc.Value, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var msgs []jsonrpc.Value
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		v, err := jsonrpc.Parse([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		msgs = append(msgs, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return msgs, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) ([]jsonrpc.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	msgs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msgs, nil
}

// Label names a scripted message for progress output: its method, or
// "response" for client replies.
func Label(msg jsonrpc.Value) string {
	label := "response"
	if m, ok := msg.Get("method"); ok {
		if s, isStr := m.AsString(); isStr && s != "" {
			label = s
		}
	}
	if raw, ok := msg.Get("id"); ok {
		if id, err := jsonrpc.IDFromValue(raw); err == nil && !id.IsAbsent() {
			label = fmt.Sprintf("%s #%s", label, id)
		}
	}
	return label
}

// Labels applies Label to every message.
func Labels(msgs []jsonrpc.Value) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = Label(m)
	}
	return out
}
