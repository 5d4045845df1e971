// Package tmux provides functions to orchestrate tmux sessions via exec.
// Session construction (new-session, split-window, select-layout) shells
// out to the tmux binary; session-level queries go through gotmux.
package tmux

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Available reports whether the tmux binary can be found on PATH.
func Available() error {
	if _, err := exec.LookPath("tmux"); err != nil {
		return fmt.Errorf("tmux not found: %w", err)
	}
	return nil
}

// HasSession checks if a tmux session with the given name exists.
func HasSession(name string) bool {
	cmd := exec.Command("tmux", "has-session", "-t", name)
	return cmd.Run() == nil
}

// NewSession creates a detached session running command in its first pane.
// workDir sets the pane's working directory. Returns the pane ID (e.g. %4).
func NewSession(name, workDir, command string) (string, error) {
	return run("new-session", "-d",
		"-s", name,
		"-c", workDir,
		"-P", "-F", "#{pane_id}",
		command)
}

// SplitWindow splits the session's window vertically, running command in
// the new pane. Returns the new pane ID.
func SplitWindow(session, workDir, command string) (string, error) {
	return run("split-window", "-v",
		"-t", session,
		"-c", workDir,
		"-P", "-F", "#{pane_id}",
		command)
}

// SelectLayout applies a tmux layout algorithm (e.g. "even-vertical")
// to the session's current window.
func SelectLayout(session, layout string) error {
	_, err := run("select-layout", "-t", session, layout)
	return err
}

// KillSession kills the session and every pane in it.
func KillSession(name string) error {
	_, err := run("kill-session", "-t", name)
	return err
}

// AttachSession attaches the current terminal to the session as a child
// process. Blocks until the user detaches or the session ends, and returns
// whatever tmux attach returns. The TMUX variable is scrubbed from the
// environment so attaching works from inside another session.
func AttachSession(name string) error {
	cmd := exec.Command("tmux", "attach-session", "-t", name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = filterTMUX(os.Environ())
	return cmd.Run()
}

// Pane describes one pane of a session window, as reported by list-panes.
type Pane struct {
	ID         string // tmux pane ID (e.g. "%42")
	Command    string // current foreground command
	Height     int    // pane height in rows
	Dead       bool   // process exited (visible with remain-on-exit)
	ExitStatus string // set when Dead
}

// ListPanes returns the panes of the named session's current window.
func ListPanes(session string) ([]Pane, error) {
	out, err := run("list-panes", "-t", session,
		"-F", "#{pane_id}\t#{pane_current_command}\t#{pane_height}\t#{pane_dead}\t#{pane_dead_status}")
	if err != nil {
		return nil, err
	}
	var panes []Pane
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 5)
		if len(parts) < 4 {
			continue
		}
		p := Pane{ID: parts[0], Command: parts[1]}
		p.Height, _ = strconv.Atoi(parts[2])
		if parts[3] == "1" {
			p.Dead = true
			if len(parts) == 5 {
				p.ExitStatus = parts[4]
			}
		}
		panes = append(panes, p)
	}
	return panes, nil
}

// ListPaneIDs returns all live pane IDs across all tmux sessions.
// Used for liveness checks by the pane tracker.
func ListPaneIDs() (map[string]bool, error) {
	out, err := run("list-panes", "-a", "-F", "#{pane_id}")
	if err != nil {
		return nil, err
	}
	panes := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			panes[line] = true
		}
	}
	return panes, nil
}

// run executes a tmux command and returns its stdout, trimmed. Stderr is
// folded into the returned error.
func run(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s",
			args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// filterTMUX removes the TMUX env var so attach works from within tmux.
func filterTMUX(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, "TMUX=") {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
