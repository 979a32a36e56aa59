// Package game detects and stops a running game process so its files can
// be replaced.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v4/process"
)

// ErrRunning is returned when the game is running and may not be closed.
var ErrRunning = errors.New("game is running")

// Proc is a running process.
type Proc struct {
	PID  int32
	Name string
	kill func(context.Context) error
}

// Lister enumerates running processes.
type Lister func(ctx context.Context) ([]Proc, error)

// Guard keeps the installation from being modified under a running game.
type Guard struct {
	name     string
	list     Lister
	logger   *log.Logger
	waitFor  time.Duration
	interval time.Duration
}

// Option configures a Guard.
type Option func(*Guard)

// WithLister replaces the system process listing.
func WithLister(l Lister) Option {
	return func(g *Guard) {
		g.list = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// WithExitWait bounds how long Ensure waits for killed processes to go away.
func WithExitWait(d time.Duration) Option {
	return func(g *Guard) {
		g.waitFor = d
	}
}

// NewGuard creates a Guard for the executable name, matched
// case-insensitively.
func NewGuard(name string, opts ...Option) *Guard {
	g := &Guard{
		name:     name,
		list:     systemProcesses,
		waitFor:  5 * time.Second,
		interval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	return g
}

// Running returns the processes matching the game executable.
func (g *Guard) Running(ctx context.Context) ([]Proc, error) {
	procs, err := g.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	var matched []Proc
	for _, p := range procs {
		if strings.EqualFold(p.Name, g.name) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Ensure returns nil when the game is not running. A running game is
// killed when closeGame is set, otherwise ErrRunning is returned.
func (g *Guard) Ensure(ctx context.Context, closeGame bool) error {
	running, err := g.Running(ctx)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		return nil
	}
	if !closeGame {
		return fmt.Errorf("%w: %s (pid %d)", ErrRunning, g.name, running[0].PID)
	}

	for _, p := range running {
		g.logger.Warn("closing game", "name", p.Name, "pid", p.PID)
		if p.kill == nil {
			return fmt.Errorf("cannot kill pid %d", p.PID)
		}
		if err := p.kill(ctx); err != nil {
			return fmt.Errorf("kill pid %d: %w", p.PID, err)
		}
	}
	return g.waitExit(ctx)
}

func (g *Guard) waitExit(ctx context.Context) error {
	deadline := time.Now().Add(g.waitFor)
	for {
		running, err := g.Running(ctx)
		if err != nil {
			return err
		}
		if len(running) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s did not exit", ErrRunning, g.name)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.interval):
		}
	}
}

func systemProcesses(ctx context.Context) ([]Proc, error) {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	procs := make([]Proc, 0, len(ps))
	for _, p := range ps {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Processes exit between listing and inspection.
			continue
		}
		procs = append(procs, Proc{PID: p.Pid, Name: name, kill: p.KillWithContext})
	}
	return procs, nil
}
