package tmux

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// testSession creates a throwaway detached session and returns its name
// plus a cleanup func. Tests are skipped when tmux is unavailable.
func testSession(t *testing.T) string {
	t.Helper()
	if err := Available(); err != nil {
		t.Skip("Skipping tmux test: tmux not on PATH")
	}
	name := fmt.Sprintf("dronedeck-test-%d", time.Now().UnixNano())
	if _, err := NewSession(name, t.TempDir(), "sleep 30"); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = KillSession(name) })
	return name
}

func TestNewSession_HasSession(t *testing.T) {
	name := testSession(t)
	if !HasSession(name) {
		t.Fatalf("HasSession(%q) = false after NewSession", name)
	}
	if HasSession(name + "-nope") {
		t.Error("HasSession reported a session that was never created")
	}
}

func TestSplitWindow_ListPanes(t *testing.T) {
	name := testSession(t)
	if _, err := SplitWindow(name, t.TempDir(), "sleep 30"); err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}
	if _, err := SplitWindow(name, t.TempDir(), "sleep 30"); err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}
	panes, err := ListPanes(name)
	if err != nil {
		t.Fatalf("ListPanes: %v", err)
	}
	if len(panes) != 3 {
		t.Fatalf("expected 3 panes, got %d", len(panes))
	}
	for _, p := range panes {
		if p.ID == "" {
			t.Error("pane with empty ID")
		}
		if p.Dead {
			t.Errorf("pane %s unexpectedly dead", p.ID)
		}
	}
}

func TestSelectLayout_EvenVertical(t *testing.T) {
	name := testSession(t)
	for i := 0; i < 2; i++ {
		if _, err := SplitWindow(name, t.TempDir(), "sleep 30"); err != nil {
			t.Fatalf("SplitWindow: %v", err)
		}
	}
	if err := SelectLayout(name, "even-vertical"); err != nil {
		t.Fatalf("SelectLayout: %v", err)
	}
	panes, err := ListPanes(name)
	if err != nil {
		t.Fatalf("ListPanes: %v", err)
	}
	// Even vertical: all panes within one row of each other.
	for i := 1; i < len(panes); i++ {
		diff := panes[i].Height - panes[0].Height
		if diff < -1 || diff > 1 {
			t.Errorf("uneven pane heights: %d vs %d", panes[i].Height, panes[0].Height)
		}
	}
}

func TestListPaneIDs(t *testing.T) {
	name := testSession(t)
	panes, err := ListPanes(name)
	if err != nil {
		t.Fatalf("ListPanes: %v", err)
	}
	live, err := ListPaneIDs()
	if err != nil {
		t.Fatalf("ListPaneIDs: %v", err)
	}
	for _, p := range panes {
		if !live[p.ID] {
			t.Errorf("pane %s missing from ListPaneIDs", p.ID)
		}
	}
}

func TestFindSession(t *testing.T) {
	name := testSession(t)
	s, err := FindSession(name)
	if err != nil {
		t.Fatalf("FindSession: %v", err)
	}
	if s == nil {
		t.Fatalf("FindSession(%q) = nil for existing session", name)
	}
	if s.Name != name {
		t.Errorf("session name = %q, want %q", s.Name, name)
	}
}

func TestRun_ErrorIncludesStderr(t *testing.T) {
	if err := Available(); err != nil {
		t.Skip("Skipping tmux test: tmux not on PATH")
	}
	_, err := run("kill-session", "-t", "dronedeck-test-does-not-exist")
	if err == nil {
		t.Fatal("expected error killing nonexistent session")
	}
	if os.Getenv("TMUX") != "" && err.Error() == "" {
		t.Error("error message empty")
	}
}
