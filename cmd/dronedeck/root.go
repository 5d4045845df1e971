package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dronedeck/internal/launcher"
	"dronedeck/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "dronedeck",
	Short: "Launch the three-pane drone tmux session",
	Long: `dronedeck creates a tmux session named "drone" with three panes
stacked even-vertical — the flight controller bridge (dronecomm), the
remote receiver reader (dronerx), and the control forwarder (dronectl) —
then attaches your terminal to it. The three binaries are expected to
live next to the dronedeck executable.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tel, err := telemetry.Init(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tracing disabled: %v\n", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = tel.Shutdown(shutdownCtx)
		}()

		dir, err := launcher.ProgramDir()
		if err != nil {
			return err
		}

		l := launcher.New(dir)
		l.Tracer = tel.Tracer()
		l.Report = printEvent

		if err := l.Launch(ctx); err != nil {
			return err
		}
		// Attach blocks until the operator detaches; the session and its
		// three processes keep running afterwards.
		return l.Attach()
	},
}

// printEvent renders launch progress, one line per completed step.
func printEvent(e launcher.Event) {
	switch e.Status {
	case launcher.StatusDone:
		fmt.Printf("  %-13s %s\n", e.Step, e.Detail)
	case launcher.StatusError:
		fmt.Fprintf(os.Stderr, "  %-13s %s failed\n", e.Step, e.Detail)
	}
}
