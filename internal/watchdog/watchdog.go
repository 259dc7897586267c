// Package watchdog supervises the bot process through its heartbeat
// file. The bot beats from its event loop; a crashed, wedged, or
// network-dead process stops beating and gets relaunched here.
package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/clock"
	"github.com/Pijatow/isocrates-bot/internal/heartbeat"
)

// Process is one running child under supervision.
type Process interface {
	// Done delivers the child's exit error exactly once.
	Done() <-chan error
	// Terminate asks the child to shut down gracefully.
	Terminate() error
	// Kill forcibly ends the child.
	Kill() error
}

// Launcher starts child processes. It is an interface so the
// supervision loop can be tested without spawning real binaries.
type Launcher interface {
	Start(ctx context.Context) (Process, error)
}

// Config tunes the supervision loop. PollInterval should exceed the
// bot's heartbeat interval; HeartbeatTimeout bounds how long a silent
// child lives.
type Config struct {
	HeartbeatPath    string
	HeartbeatTimeout time.Duration
	PollInterval     time.Duration
	RestartDelay     time.Duration
	KillGrace        time.Duration
}

type Watchdog struct {
	launcher Launcher
	cfg      Config
	clock    clock.Clock
	logger   *slog.Logger
}

func New(launcher Launcher, cfg Config, clk clock.Clock, logger *slog.Logger) *Watchdog {
	if cfg.KillGrace == 0 {
		cfg.KillGrace = 5 * time.Second
	}
	return &Watchdog{
		launcher: launcher,
		cfg:      cfg,
		clock:    clk,
		logger:   logger.With("component", "watchdog"),
	}
}

// Run launches and relaunches the child until the context is
// cancelled. Each launch seeds a fresh heartbeat so a leftover stale
// file never condemns a child that has not had time to beat.
func (w *Watchdog) Run(ctx context.Context) error {
	for {
		if err := heartbeat.Write(w.cfg.HeartbeatPath, w.clock.Now()); err != nil {
			return fmt.Errorf("seed heartbeat: %w", err)
		}

		proc, err := w.launcher.Start(ctx)
		if err != nil {
			w.logger.Error("launch failed", "error", err)
			if stopped := w.pause(ctx, w.cfg.RestartDelay); stopped {
				return nil
			}
			continue
		}
		w.logger.Info("child launched")

		if stopped := w.supervise(ctx, proc); stopped {
			return nil
		}
		w.logger.Info("relaunching", "delay", w.cfg.RestartDelay)
		if stopped := w.pause(ctx, w.cfg.RestartDelay); stopped {
			return nil
		}
	}
}

// supervise watches one child. It returns true when the watchdog
// itself should stop, false when the child should be relaunched.
func (w *Watchdog) supervise(ctx context.Context, proc Process) bool {
	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			w.shutdown(proc)
			return true

		case err := <-proc.Done():
			if err != nil {
				w.logger.Error("child exited", "error", err)
			} else {
				w.logger.Info("child exited cleanly")
			}
			return false

		case <-poll.C:
			if heartbeat.Stale(w.cfg.HeartbeatPath, w.clock.Now(), w.cfg.HeartbeatTimeout) {
				w.logger.Error("heartbeat stale, killing child",
					"path", w.cfg.HeartbeatPath, "timeout", w.cfg.HeartbeatTimeout)
				if err := proc.Kill(); err != nil {
					w.logger.Error("kill child", "error", err)
				}
				<-proc.Done()
				return false
			}
		}
	}
}

// shutdown terminates the child gracefully, escalating to kill.
func (w *Watchdog) shutdown(proc Process) {
	if err := proc.Terminate(); err != nil {
		w.logger.Error("terminate child", "error", err)
	}
	select {
	case <-proc.Done():
	case <-time.After(w.cfg.KillGrace):
		if err := proc.Kill(); err != nil {
			w.logger.Error("kill child", "error", err)
		}
		<-proc.Done()
	}
}

func (w *Watchdog) pause(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}

// ExecLauncher spawns the bot binary with inherited stdio.
type ExecLauncher struct {
	Path string
	Args []string
}

func (l *ExecLauncher) Start(_ context.Context) (Process, error) {
	cmd := exec.Command(l.Path, l.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.Path, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return &execProcess{cmd: cmd, done: done}, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan error
}

func (p *execProcess) Done() <-chan error { return p.done }

func (p *execProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}
