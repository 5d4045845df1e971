package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dronedeck/internal/launcher"
	"dronedeck/internal/tmux"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach to the running drone session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := tmux.FindSession(launcher.SessionName)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("session %q is not running; start it with `dronedeck`", launcher.SessionName)
		}
		return session.Attach()
	},
}

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Kill the drone session and its three processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := tmux.FindSession(launcher.SessionName)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("session %q is not running", launcher.SessionName)
		}
		if err := session.Kill(); err != nil {
			return fmt.Errorf("kill session: %w", err)
		}
		fmt.Printf("Killed session %q\n", launcher.SessionName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(killCmd)
}
