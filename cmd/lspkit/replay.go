package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lspkit/internal/replay"
)

var (
	replayUI  string
	replayOut string
)

func init() {
	replayCmd.Flags().StringVar(&replayUI, "ui", "auto", "progress view (auto|on|off)")
	replayCmd.Flags().StringVarP(&replayOut, "out", "o", "-", "where to write the server's messages as NDJSON (\"-\" for stdout)")
}

var replayCmd = &cobra.Command{
	Use:          "replay <session.ndjson>",
	Short:        "Feed a recorded client session through the engine",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	mode, err := readUIMode(replayUI)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	msgs, err := replay.LoadFile(args[0])
	if err != nil {
		return err
	}

	useTUI := shouldUseTUI(mode, os.Stdout)
	opts := replay.Options{Server: serverOptions(cfg, tracer)}
	opts.Server.Log = cmd.ErrOrStderr()
	if useTUI {
		opts.Server.Log = io.Discard
	}

	var res replay.Result
	if useTUI {
		res, err = runReplayWithUI(cmd.Context(), filepath.Base(args[0]), msgs, newEngine(cfg), opts)
	} else {
		res, err = replay.Run(cmd.Context(), msgs, newEngine(cfg), opts)
	}
	if err != nil {
		dumpRing(cmd.ErrOrStderr(), tracer)
	}

	if werr := writeReport(cmd.OutOrStdout(), replayOut, res); werr != nil {
		return werr
	}
	fmt.Fprintln(cmd.ErrOrStderr(), replay.Summary(res))
	return err
}

// writeReport writes the server's messages to path, or to stdout for "-".
func writeReport(stdout io.Writer, path string, res replay.Result) error {
	if path == "" || path == "-" {
		return replay.WriteNDJSON(stdout, res)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := replay.WriteNDJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
