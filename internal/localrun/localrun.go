// Package localrun runs the flight programs in the foreground when no
// tmux is available: each program gets a PTY, output is multiplexed to
// one stream with per-program prefixes. No restarts, no supervision —
// a program that exits stays exited until the group is torn down.
package localrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Proc names one program to run.
type Proc struct {
	Name string // output prefix ("comm", "rx", "control")
	Path string // absolute path to the binary
}

// Group runs a fixed set of programs until they exit or the context is
// cancelled.
type Group struct {
	procs  []Proc
	runner Runner
	out    io.Writer
	mu     sync.Mutex // serializes writes to out
}

// New creates a Group writing prefixed output to out. A nil runner
// defaults to the creack/pty implementation.
func New(procs []Proc, runner Runner, out io.Writer) *Group {
	if runner == nil {
		runner = &CreackPTY{}
	}
	return &Group{procs: procs, runner: runner, out: out}
}

// Run starts every program and blocks until all have exited or ctx is
// cancelled (which closes every PTY and kills the processes). Programs
// that fail to start or exit nonzero are reported in the joined error;
// one program failing does not stop the others.
func (g *Group) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, len(g.procs))

	for i, p := range g.procs {
		cmd := exec.Command(p.Path)
		f, err := g.runner.Start(ctx, cmd, Size{Rows: 24, Cols: 120})
		if err != nil {
			errs[i] = fmt.Errorf("start %s: %w", p.Name, err)
			g.printf("[%s] failed to start: %v\n", p.Name, err)
			continue
		}

		// Tear the PTY down on cancellation; the read loop then sees EOF.
		stop := context.AfterFunc(ctx, func() {
			f.Close()
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		})

		wg.Add(1)
		go func(i int, p Proc) {
			defer wg.Done()
			defer stop()
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				g.printf("[%s] %s\n", p.Name, scanner.Text())
			}
			f.Close()
			if err := cmd.Wait(); err != nil && ctx.Err() == nil {
				errs[i] = fmt.Errorf("%s: %w", p.Name, err)
				g.printf("[%s] exited: %v\n", p.Name, err)
			}
		}(i, p)
	}

	wg.Wait()
	return errors.Join(errs...)
}

func (g *Group) printf(format string, args ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintf(g.out, format, args...)
}
