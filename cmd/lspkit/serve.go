package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lspkit/internal/config"
	"lspkit/internal/jsonrpc"
	"lspkit/internal/lsp"
	"lspkit/internal/trace"
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Run the word-index language server over stdio",
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	return serve(cmd.Context(), os.Stdin, os.Stdout, cmd.ErrOrStderr(), cfg, tracer)
}

// serve runs one session over in and out. Server diagnostics, and the ring
// dump after an abnormal end, go to errw.
func serve(ctx context.Context, in io.Reader, out, errw io.Writer, cfg config.Config, tracer trace.Tracer) error {
	opts := serverOptions(cfg, tracer)
	opts.Log = errw
	server := lsp.NewServer(jsonrpc.NewStreamTransport(in, out), newEngine(cfg), opts)

	err := server.Run(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.Canceled) {
		dumpRing(errw, tracer)
	}
	if errors.Is(err, lsp.ErrExitWithoutShutdown) {
		return fmt.Errorf("client sent exit before shutdown: %w", err)
	}
	return err
}
