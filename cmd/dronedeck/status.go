package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"dronedeck/internal/launcher"
	"dronedeck/internal/tmux"
	"dronedeck/internal/ui"
)

var (
	deadStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"}).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#116620", Dark: "#50FA7B"})
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the drone session's panes and their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			return runWatch()
		}

		if !tmux.HasSession(launcher.SessionName) {
			return fmt.Errorf("session %q is not running", launcher.SessionName)
		}
		panes, err := tmux.ListPanes(launcher.SessionName)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %-12s %s\n", "PANE", "PROGRAM", "STATE")
		for _, p := range panes {
			state := runningStyle.Render("running")
			if p.Dead {
				state = deadStyle.Render("dead (exit " + p.ExitStatus + ")")
			}
			fmt.Printf("%-6s %-12s %s\n", p.ID, p.Command, state)
		}
		return nil
	},
}

// runWatch polls the session in a full-screen view. If the user asks to
// attach, the TUI exits first so the terminal is free for tmux.
func runWatch() error {
	p := tea.NewProgram(ui.NewModel(launcher.SessionName), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	final := finalModel.(ui.Model)
	if final.AttachTarget != "" {
		return tmux.AttachSession(final.AttachTarget)
	}
	return nil
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "Poll the session in a full-screen view")
	rootCmd.AddCommand(statusCmd)
}
