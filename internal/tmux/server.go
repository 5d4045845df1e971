package tmux

import (
	"fmt"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// FindSession looks up a session on the default tmux server by name.
// Returns nil without error when the session does not exist (including
// when no server is running at all).
func FindSession(name string) (*gotmux.Session, error) {
	srv, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("tmux server: %w", err)
	}
	session, err := srv.GetSessionByName(name)
	if err != nil {
		// No server running is not an error for a lookup.
		return nil, nil
	}
	return session, nil
}

// Sessions lists all sessions on the default tmux server. Returns nil
// when no server is running.
func Sessions() ([]*gotmux.Session, error) {
	srv, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("tmux server: %w", err)
	}
	sessions, err := srv.ListSessions()
	if err != nil {
		return nil, nil
	}
	return sessions, nil
}
