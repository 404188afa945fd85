// Package config loads lspkit.toml, the optional settings file of the server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"lspkit/internal/protocol"
	"lspkit/internal/trace"
)

// FileName is the settings file searched for from the working directory up.
const FileName = "lspkit.toml"

// Config mirrors lspkit.toml.
type Config struct {
	Server ServerConfig `toml:"server"`
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`

	// Path is the file the values came from; empty for defaults.
	Path string `toml:"-"`
}

type ServerConfig struct {
	Name                   string `toml:"name"`
	MaxConsecutiveFailures int    `toml:"max_consecutive_failures"`
	// Trace is the $/logTrace level used until the client picks one.
	Trace string `toml:"trace"`
}

type EngineConfig struct {
	MaxLineLength int      `toml:"max_line_length"`
	Markers       []string `toml:"markers"`
	AllowedDirs   []string `toml:"allowed_dirs"`
	Jobs          int      `toml:"jobs"`
}

type LogConfig struct {
	TraceOutput string `toml:"trace_output"`
	TraceLevel  string `toml:"trace_level"`
	TraceMode   string `toml:"trace_mode"`
	RingSize    int    `toml:"ring_size"`
	Heartbeat   string `toml:"heartbeat"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:                   "wordls",
			MaxConsecutiveFailures: 5,
			Trace:                  "off",
		},
		Engine: EngineConfig{
			MaxLineLength: 120,
			Markers:       []string{"TODO", "FIXME"},
		},
		Log: LogConfig{
			TraceLevel: "off",
			TraceMode:  "ring",
			RingSize:   4096,
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest lspkit.toml above startDir, or the defaults.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path. Keys the file leaves out keep their default value; keys
// the loader does not know are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if meta.IsDefined("engine", "markers") && cfg.Engine.Markers == nil {
		cfg.Engine.Markers = []string{}
	}

	// relative allowed dirs are relative to the file, not the process
	base := filepath.Dir(path)
	for i, dir := range cfg.Engine.AllowedDirs {
		if !filepath.IsAbs(dir) {
			cfg.Engine.AllowedDirs[i] = filepath.Join(base, filepath.FromSlash(dir))
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every value that has a restricted spelling or range.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Name) == "" {
		return errors.New("[server].name must not be empty")
	}
	if c.Server.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("[server].max_consecutive_failures must not be negative, got %d", c.Server.MaxConsecutiveFailures)
	}
	if _, err := c.ClientTrace(); err != nil {
		return fmt.Errorf("[server].trace: %w", err)
	}
	if c.Engine.MaxLineLength < 0 {
		return fmt.Errorf("[engine].max_line_length must not be negative, got %d", c.Engine.MaxLineLength)
	}
	for i, m := range c.Engine.Markers {
		if m == "" {
			return fmt.Errorf("[engine].markers[%d] must not be empty", i)
		}
	}
	if c.Engine.Jobs < 0 {
		return fmt.Errorf("[engine].jobs must not be negative, got %d", c.Engine.Jobs)
	}
	if _, err := trace.ParseLevel(c.Log.TraceLevel); err != nil {
		return fmt.Errorf("[log].trace_level: %w", err)
	}
	if _, err := trace.ParseMode(c.Log.TraceMode); err != nil {
		return fmt.Errorf("[log].trace_mode: %w", err)
	}
	if c.Log.RingSize < 0 {
		return fmt.Errorf("[log].ring_size must not be negative, got %d", c.Log.RingSize)
	}
	if _, err := c.HeartbeatInterval(); err != nil {
		return fmt.Errorf("[log].heartbeat: %w", err)
	}
	return nil
}

// ClientTrace returns the initial $/logTrace level.
func (c Config) ClientTrace() (protocol.Trace, error) {
	return protocol.ParseTrace(c.Server.Trace)
}

// HeartbeatInterval parses [log].heartbeat; empty disables the heartbeat.
func (c Config) HeartbeatInterval() (time.Duration, error) {
	if strings.TrimSpace(c.Log.Heartbeat) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Log.Heartbeat)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", d)
	}
	return d, nil
}
