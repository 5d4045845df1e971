// Package ui renders the live pane-status view for the drone session.
// The model polls tmux and only observes: it never kills or restarts
// anything. Attaching is requested back to the caller via AttachTarget.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"dronedeck/internal/session"
	"dronedeck/internal/tmux"
)

const pollInterval = 1500 * time.Millisecond

type tickMsg time.Time

type panesMsg []tmux.Pane

type errMsg struct{ err error }

type keyMap struct {
	Quit   key.Binding
	Attach key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Attach: key.NewBinding(
		key.WithKeys("a", "enter"),
		key.WithHelp("a", "attach"),
	),
}

// Model is the bubbletea model for `dronedeck status --watch`.
type Model struct {
	Session string

	// AttachTarget is set to the session name when the user asked to
	// attach; the caller attaches after the program exits alt-screen.
	AttachTarget string

	tracker *session.Tracker
	panes   []tmux.Pane
	err     error
	loaded  bool
}

// NewModel builds the watch model for the named session.
func NewModel(sessionName string) Model {
	return Model{
		Session: sessionName,
		tracker: session.New(tmux.ListPaneIDs),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh fetches the session's panes.
func (m Model) refresh() tea.Msg {
	if !tmux.HasSession(m.Session) {
		return errMsg{fmt.Errorf("session %q does not exist", m.Session)}
	}
	panes, err := tmux.ListPanes(m.Session)
	if err != nil {
		return errMsg{err}
	}
	return panesMsg(panes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Attach):
			m.AttachTarget = m.Session
			return m, tea.Quit
		}

	case tickMsg:
		return m, tea.Batch(m.refresh, tickCmd())

	case panesMsg:
		m.panes = msg
		m.err = nil
		m.loaded = true
		for _, p := range m.panes {
			m.tracker.Observe(p.ID, p.Command)
		}
		_, _ = m.tracker.Prune()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("drone session") + "\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(m.err.Error()) + "\n")
	case !m.loaded:
		b.WriteString(hintStyle.Render("loading...") + "\n")
	default:
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-12s %-10s %s", "PANE", "PROGRAM", "UPTIME", "STATE")) + "\n")
		for _, p := range m.panes {
			state := statusRunning.Render("running")
			if p.Dead {
				state = statusDead.Render("dead (exit " + p.ExitStatus + ")")
			}
			uptime := formatUptime(m.tracker.Uptime(p.ID))
			b.WriteString(rowStyle.Render(fmt.Sprintf("%-6s %-12s %-10s ", p.ID, p.Command, uptime)) + state + "\n")
		}
	}

	b.WriteString("\n" + hintStyle.Render("a attach · q quit") + "\n")
	return b.String()
}

// formatUptime renders a duration as "4m12s"-style text, coarse on
// purpose: pane ages are only known since this watcher started.
func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, s)
}
