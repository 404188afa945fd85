package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lspkit/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lspkit",
	Short: "Language Server Protocol engine",
	Long:  `lspkit serves a word-index language server over stdio and replays recorded client sessions`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		mode, err := cmd.Flags().GetString("color")
		if err != nil {
			return err
		}
		return applyColorMode(mode)
	},
}

// main registers the subcommands and persistent flags and runs the root
// command until it returns or the process is interrupted.
func main() {
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func registerPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to lspkit.toml (default: search upward from the working directory)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("trace", "", "trace output file (\"-\" for stderr; .ndjson and .msgpack pick the format)")
	flags.String("trace-level", "", "trace level (off|error|session|message|debug)")
	flags.String("trace-mode", "", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 0, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "heartbeat interval while tracing (0 disables)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func applyColorMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
