package launcher

import "time"

// Status indicates the state of a launch step.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event describes the progress of one launch step. Emitted as the
// launcher works through session construction; the CLI renders these.
type Event struct {
	Step      string // e.g. "new-session", "split-window"
	Detail    string // program or pane the step acted on
	Status    Status
	Timestamp time.Time
}

// Reporter consumes launch events. A nil Reporter silences progress.
type Reporter func(Event)

func (l *Launcher) report(step, detail string, status Status) {
	if l.Report == nil {
		return
	}
	l.Report(Event{
		Step:      step,
		Detail:    detail,
		Status:    status,
		Timestamp: time.Now(),
	})
}
