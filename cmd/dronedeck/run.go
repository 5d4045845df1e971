package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"dronedeck/internal/launcher"
	"dronedeck/internal/localrun"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the three flight programs in the foreground (no tmux)",
	Long: `run starts dronecomm, dronerx, and dronectl under PTYs and
multiplexes their output with per-program prefixes. Useful on hosts
without tmux. Ctrl-C stops everything; there is no restart logic.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := launcher.ProgramDir()
		if err != nil {
			return err
		}

		var procs []localrun.Proc
		for _, pane := range launcher.DefaultPanes() {
			procs = append(procs, localrun.Proc{
				Name: pane.Name,
				Path: filepath.Join(dir, pane.Program),
			})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return localrun.New(procs, nil, os.Stdout).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
