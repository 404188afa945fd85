package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"lspkit/internal/jsonrpc"
	"lspkit/internal/lsp"
	"lspkit/internal/replay"
	"lspkit/internal/ui"
)

// runReplayWithUI replays msgs while a progress view follows the events. The
// view may be quit early; the replay still runs to completion.
func runReplayWithUI(ctx context.Context, title string, msgs []jsonrpc.Value, engine lsp.Engine, opts replay.Options) (replay.Result, error) {
	// Every step emits at most two events, plus one for the session.
	events := make(chan replay.Event, 2*len(msgs)+1)
	opts.Sink = replay.ChannelSink{Ch: events}

	var (
		result replay.Result
		runErr error
		g      errgroup.Group
	)
	g.Go(func() error {
		defer close(events)
		result, runErr = replay.Run(ctx, msgs, engine, opts)
		return nil
	})

	model := ui.NewProgressModel(title, replay.Labels(msgs), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	g.Go(func() error {
		_, err := program.Run()
		return err
	})

	uiErr := g.Wait()
	if runErr != nil {
		return result, runErr
	}
	return result, uiErr
}
