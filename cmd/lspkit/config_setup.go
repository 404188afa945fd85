package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lspkit/internal/config"
	"lspkit/internal/lsp"
	"lspkit/internal/trace"
	"lspkit/internal/version"
	"lspkit/internal/wordls"
)

// loadConfig reads --config, or discovers lspkit.toml from the working
// directory, and lets explicitly set trace flags override the [log] table.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return config.Config{}, wdErr
		}
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("trace") {
		cfg.Log.TraceOutput, _ = flags.GetString("trace")
	}
	if flags.Changed("trace-level") {
		cfg.Log.TraceLevel, _ = flags.GetString("trace-level")
	}
	if flags.Changed("trace-mode") {
		cfg.Log.TraceMode, _ = flags.GetString("trace-mode")
	}
	if flags.Changed("trace-ring-size") {
		cfg.Log.RingSize, _ = flags.GetInt("trace-ring-size")
	}
	if flags.Changed("trace-heartbeat") {
		d, _ := flags.GetDuration("trace-heartbeat")
		cfg.Log.Heartbeat = d.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newEngine builds the word-index engine described by cfg.
func newEngine(cfg config.Config) *wordls.Engine {
	return wordls.New(wordls.Options{
		Name:    cfg.Server.Name,
		Version: version.Current().Version,
		Settings: wordls.Settings{
			MaxLineLength: cfg.Engine.MaxLineLength,
			Markers:       cfg.Engine.Markers,
		},
		AllowedDirs: cfg.Engine.AllowedDirs,
		Jobs:        cfg.Engine.Jobs,
	})
}

// serverOptions maps cfg onto the protocol loop. cfg must be validated.
func serverOptions(cfg config.Config, tracer trace.Tracer) lsp.Options {
	clientTrace, _ := cfg.ClientTrace()
	return lsp.Options{
		MaxConsecutiveFailures: cfg.Server.MaxConsecutiveFailures,
		Trace:                  clientTrace,
		Tracer:                 tracer,
	}
}
