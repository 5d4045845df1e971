// Package session tracks the drone session's tmux panes across status
// refreshes. The tracker remembers when each pane was first observed
// (tmux does not report pane uptime) and prunes panes that have since
// disappeared, via tmux list-panes.
package session

import (
	"sort"
	"sync"
	"time"
)

// TrackedPane holds metadata about one observed tmux pane.
type TrackedPane struct {
	PaneID    string    // tmux pane ID (e.g. "%42")
	Program   string    // foreground program when first observed
	CreatedAt time.Time // when the pane was first observed
}

// LivenessChecker returns the set of currently live tmux pane IDs.
// In production this calls tmux.ListPaneIDs(); tests can inject a stub.
type LivenessChecker func() (map[string]bool, error)

// Tracker manages the set of observed panes. Safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	panes    map[string]TrackedPane // paneID -> pane
	liveness LivenessChecker
}

// New creates a Tracker with the given liveness checker.
// If liveness is nil, Prune becomes a no-op.
func New(liveness LivenessChecker) *Tracker {
	return &Tracker{
		panes:    make(map[string]TrackedPane),
		liveness: liveness,
	}
}

// Observe records a pane sighting. The first sighting sets CreatedAt;
// later sightings only refresh the program name.
func (t *Tracker) Observe(paneID, program string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.panes[paneID]; ok {
		p.Program = program
		t.panes[paneID] = p
		return
	}
	t.panes[paneID] = TrackedPane{
		PaneID:    paneID,
		Program:   program,
		CreatedAt: time.Now(),
	}
}

// All returns the tracked panes, oldest first.
func (t *Tracker) All() []TrackedPane {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TrackedPane, 0, len(t.panes))
	for _, p := range t.panes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PaneID < out[j].PaneID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of tracked panes.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.panes)
}

// Uptime returns how long a pane has been observed, or zero for an
// unknown pane.
func (t *Tracker) Uptime(paneID string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.panes[paneID]
	if !ok {
		return 0
	}
	return time.Since(p.CreatedAt)
}

// Prune removes panes no longer reported live by tmux.
// Returns the number of panes pruned.
func (t *Tracker) Prune() (int, error) {
	if t.liveness == nil {
		return 0, nil
	}
	live, err := t.liveness()
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	pruned := 0
	for id := range t.panes {
		if !live[id] {
			delete(t.panes, id)
			pruned++
		}
	}
	return pruned, nil
}
