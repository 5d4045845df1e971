// Package launcher builds the drone tmux session: one pane per flight
// program, stacked even-vertical, with the operator's terminal attached
// at the end.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"dronedeck/internal/tmux"
)

const (
	// SessionName is the fixed name of the drone tmux session.
	SessionName = "drone"

	// Layout gives every pane equal vertical space.
	Layout = "even-vertical"
)

// PaneSpec binds one pane to one flight program binary.
type PaneSpec struct {
	Name    string // short label ("comm", "rx", "control")
	Program string // binary name, resolved against ProgramDir
}

// DefaultPanes returns the fixed three-pane layout: flight controller
// bridge, remote receiver reader, control forwarder — in launch order.
func DefaultPanes() []PaneSpec {
	return []PaneSpec{
		{Name: "comm", Program: "dronecomm"},
		{Name: "rx", Program: "dronerx"},
		{Name: "control", Program: "dronectl"},
	}
}

// ProgramDir resolves the directory containing the running executable.
// The flight program binaries are expected to live alongside it, so the
// launcher works regardless of the directory it is invoked from.
func ProgramDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve executable symlink: %w", err)
	}
	return filepath.Dir(exe), nil
}

// Launcher creates the drone session. Zero value is not usable; use New.
type Launcher struct {
	Session    string
	ProgramDir string
	Panes      []PaneSpec

	// Report receives progress events. Optional.
	Report Reporter

	// Tracer records one span per launch step. Optional.
	Tracer oteltrace.Tracer
}

// New returns a Launcher for the default three-pane drone session with
// programs resolved against programDir.
func New(programDir string) *Launcher {
	return &Launcher{
		Session:    SessionName,
		ProgramDir: programDir,
		Panes:      DefaultPanes(),
	}
}

// Launch creates the detached session: first pane via new-session, the
// rest via split-window, then the even-vertical layout. On any failure
// after session creation the partial session is killed so nothing
// half-built is left behind. Fails up front if the session name is
// already in use, without touching the existing session.
func (l *Launcher) Launch(ctx context.Context) (err error) {
	if len(l.Panes) == 0 {
		return fmt.Errorf("no panes configured")
	}
	if err := tmux.Available(); err != nil {
		return err
	}
	if tmux.HasSession(l.Session) {
		return fmt.Errorf("session %q already exists; attach with `dronedeck attach` or kill it first", l.Session)
	}

	ctx, root := l.span(ctx, "launch",
		attribute.String("session", l.Session),
		attribute.Int("panes", len(l.Panes)))
	defer func() { l.end(root, err) }()

	l.report("new-session", l.Panes[0].Program, StatusRunning)
	_, step := l.span(ctx, "new-session", attribute.String("program", l.Panes[0].Program))
	paneID, err := tmux.NewSession(l.Session, l.ProgramDir, l.paneCommand(l.Panes[0]))
	l.end(step, err)
	if err != nil {
		l.report("new-session", l.Panes[0].Program, StatusError)
		return fmt.Errorf("create session %q: %w", l.Session, err)
	}
	l.report("new-session", l.Panes[0].Program+" in "+paneID, StatusDone)

	// Don't leave a half-built session behind on later failures.
	defer func() {
		if err != nil {
			_ = tmux.KillSession(l.Session)
		}
	}()

	for _, pane := range l.Panes[1:] {
		l.report("split-window", pane.Program, StatusRunning)
		_, step := l.span(ctx, "split-window", attribute.String("program", pane.Program))
		paneID, err = tmux.SplitWindow(l.Session, l.ProgramDir, l.paneCommand(pane))
		l.end(step, err)
		if err != nil {
			l.report("split-window", pane.Program, StatusError)
			return fmt.Errorf("create pane %q: %w", pane.Name, err)
		}
		l.report("split-window", pane.Program+" in "+paneID, StatusDone)
	}

	_, step = l.span(ctx, "select-layout", attribute.String("layout", Layout))
	err = tmux.SelectLayout(l.Session, Layout)
	l.end(step, err)
	if err != nil {
		return fmt.Errorf("apply layout %q: %w", Layout, err)
	}
	l.report("select-layout", Layout, StatusDone)
	return nil
}

// Attach binds the invoking terminal to the session. Blocks until the
// operator detaches or the session ends; the session and its panes keep
// running after detach.
func (l *Launcher) Attach() error {
	return tmux.AttachSession(l.Session)
}

// paneCommand builds the shell command run inside a pane. remain-on-exit
// is set from inside the pane as its first action, so a program that
// exits immediately leaves a dead pane to inspect instead of collapsing
// the pane (and, for the first pane, the whole session).
func (l *Launcher) paneCommand(p PaneSpec) string {
	program := filepath.Join(l.ProgramDir, p.Program)
	return "tmux set-option remain-on-exit on 2>/dev/null; exec " + shellQuote(program)
}

// shellQuote wraps s in single quotes for safe use in a shell command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (l *Launcher) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if l.Tracer == nil {
		return ctx, nil
	}
	return l.Tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

func (l *Launcher) end(span oteltrace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
