package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestCurrentTrimsAndDefaults(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "  "
	GitCommit = " abc123 \n"
	BuildDate = ""
	info := Current()
	if info.Version != "dev" {
		t.Fatalf("expected dev for empty version, got %q", info.Version)
	}
	if info.GitCommit != "abc123" {
		t.Fatalf("expected trimmed commit, got %q", info.GitCommit)
	}
	if info.BuildDate != "" {
		t.Fatalf("expected empty build date, got %q", info.BuildDate)
	}
}

func TestColored(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = orig }()

	tests := []struct {
		in      string
		colored bool
	}{
		{"0.1.0", true},
		{"1.2.3-rc.1+build.5", true},
		{"dev", false},
		{"1.2", false},
		{"1.x.3", false},
	}
	for _, tt := range tests {
		got := Colored(tt.in)
		if tt.colored && got == tt.in {
			t.Errorf("Colored(%q) was left plain", tt.in)
		}
		if !tt.colored && got != tt.in {
			t.Errorf("Colored(%q) = %q, want unchanged", tt.in, got)
		}
	}
}

func TestColoredPlainWhenDisabled(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	if got := Colored("0.1.0-dev"); got != "0.1.0-dev" {
		t.Fatalf("expected plain output, got %q", got)
	}
}
