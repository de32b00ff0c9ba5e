package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"phpmdls/internal/batch"
	"phpmdls/internal/ui"
)

type checkOutcome struct {
	report batch.Report
	err    error
}

func runCheckWithUI(ctx context.Context, title string, req *batch.Request) (batch.Report, error) {
	if req == nil {
		return batch.Report{}, fmt.Errorf("missing check request")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan batch.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = batch.ChannelSink{Ch: events}
		report, err := batch.Check(ctx, &reqCopy)
		outcomeCh <- checkOutcome{report: report, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := awaitCheck(cancel, events, outcomeCh)
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}

// awaitCheck collects the check outcome once the view has ended. If the
// view was closed while files were still running, the check is canceled.
func awaitCheck(cancel context.CancelFunc, events <-chan batch.Event, outcomeCh <-chan checkOutcome) checkOutcome {
	select {
	case outcome := <-outcomeCh:
		return outcome
	default:
	}
	cancel()
	for range events {
		// keep workers unblocked until they stop
	}
	return <-outcomeCh
}
