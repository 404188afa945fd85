package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lspkit/internal/protocol"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDiscoverWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Path != "" {
		t.Fatalf("expected defaults, got config from %s", cfg.Path)
	}
	if cfg.Server.MaxConsecutiveFailures != 5 || cfg.Engine.MaxLineLength != 120 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestDiscoverSearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[server]
name = "words"
trace = "verbose"

[engine]
markers = []
allowed_dirs = ["vendor", "/opt/shared"]

[log]
heartbeat = "250ms"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Path != filepath.Join(root, FileName) {
		t.Fatalf("unexpected path %s", cfg.Path)
	}
	if cfg.Server.Name != "words" {
		t.Fatalf("unexpected name %q", cfg.Server.Name)
	}
	if cfg.Server.MaxConsecutiveFailures != 5 {
		t.Fatalf("unset key must keep its default, got %d", cfg.Server.MaxConsecutiveFailures)
	}
	if len(cfg.Engine.Markers) != 0 {
		t.Fatalf("explicit empty markers must clear the defaults, got %v", cfg.Engine.Markers)
	}
	if got := cfg.Engine.AllowedDirs; len(got) != 2 || got[0] != filepath.Join(root, "vendor") || got[1] != "/opt/shared" {
		t.Fatalf("unexpected allowed dirs %v", got)
	}
	if tr, _ := cfg.ClientTrace(); tr != protocol.TraceVerbose {
		t.Fatalf("unexpected trace %s", tr)
	}
	if d, _ := cfg.HeartbeatInterval(); d != 250*time.Millisecond {
		t.Fatalf("unexpected heartbeat %s", d)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "syntax", body: "[server\n", want: "failed to parse TOML"},
		{name: "unknown key", body: "[server]\ncolour = 1\n", want: "unknown keys: server.colour"},
		{name: "bad trace", body: "[server]\ntrace = \"loud\"\n", want: "[server].trace"},
		{name: "empty name", body: "[server]\nname = \"  \"\n", want: "[server].name"},
		{name: "bad level", body: "[log]\ntrace_level = \"chatty\"\n", want: "[log].trace_level"},
		{name: "bad mode", body: "[log]\ntrace_mode = \"tape\"\n", want: "[log].trace_mode"},
		{name: "bad heartbeat", body: "[log]\nheartbeat = \"soon\"\n", want: "[log].heartbeat"},
		{name: "negative length", body: "[engine]\nmax_line_length = -3\n", want: "[engine].max_line_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}
