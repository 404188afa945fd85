package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lspkit/internal/config"
	"lspkit/internal/trace"
)

// setupTracing builds the tracer described by the [log] table and attaches it
// to the command context. The returned cleanup stops the heartbeat and flushes
// the tracer.
func setupTracing(cmd *cobra.Command, cfg config.Config) (trace.Tracer, func(), error) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	level, err := trace.ParseLevel(cfg.Log.TraceLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}

	// An output without a level means the user wants a trace.
	if level == trace.LevelOff && cfg.Log.TraceOutput != "" {
		level = trace.LevelMessage
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(base, trace.Nop))
		return trace.Nop, func() {}, nil
	}

	mode, err := trace.ParseMode(cfg.Log.TraceMode)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	if cfg.Log.TraceOutput != "" && mode == trace.ModeRing {
		mode = trace.ModeBoth
	}
	heartbeatInterval, err := cfg.HeartbeatInterval()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace heartbeat: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: cfg.Log.TraceOutput,
		RingSize:   cfg.Log.RingSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(base, tracer)
	cmd.SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func() {
		heartbeat.Stop()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// dumpRing writes the events kept in memory, if tracer has a ring.
func dumpRing(w io.Writer, tracer trace.Tracer) {
	ring := trace.RingOf(tracer)
	if ring == nil {
		return
	}
	fmt.Fprintln(w, "lspkit: last trace events:")
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
