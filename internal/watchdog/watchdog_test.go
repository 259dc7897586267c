package watchdog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/clock"
)

type fakeProcess struct {
	mu         sync.Mutex
	done       chan error
	terminated bool
	killed     bool
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan error, 1)}
}

func (p *fakeProcess) Done() <-chan error { return p.done }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminated = true
	p.done <- nil
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	p.done <- errors.New("killed")
	return nil
}

func (p *fakeProcess) exit(err error) { p.done <- err }

func (p *fakeProcess) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *fakeProcess) wasTerminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

type fakeLauncher struct {
	mu      sync.Mutex
	procs   []*fakeProcess
	started chan *fakeProcess
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{started: make(chan *fakeProcess, 8)}
}

func (l *fakeLauncher) Start(context.Context) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := newFakeProcess()
	l.procs = append(l.procs, p)
	l.started <- p
	return p, nil
}

func testConfig(dir string) Config {
	return Config{
		HeartbeatPath:    filepath.Join(dir, "heartbeat.txt"),
		HeartbeatTimeout: time.Minute,
		PollInterval:     5 * time.Millisecond,
		RestartDelay:     time.Millisecond,
		KillGrace:        50 * time.Millisecond,
	}
}

func awaitProcess(t *testing.T, launcher *fakeLauncher) *fakeProcess {
	t.Helper()
	select {
	case p := <-launcher.started:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a launch")
		return nil
	}
}

func TestWatchdog(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("child exit triggers a relaunch", func(t *testing.T) {
		launcher := newFakeLauncher()
		w := New(launcher, testConfig(t.TempDir()), clock.NewManual(time.Now()), logger)

		ctx, cancel := context.WithCancel(context.Background())
		ran := make(chan error, 1)
		go func() { ran <- w.Run(ctx) }()

		first := awaitProcess(t, launcher)
		first.exit(errors.New("boom"))

		second := awaitProcess(t, launcher)
		if second == first {
			t.Fatal("expected a fresh process")
		}
		cancel()
		if err := <-ran; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !second.wasTerminated() {
			t.Fatal("expected the live child terminated on shutdown")
		}
	})

	t.Run("stale heartbeat kills the child and relaunches", func(t *testing.T) {
		launcher := newFakeLauncher()
		clk := clock.NewManual(time.Now())
		cfg := testConfig(t.TempDir())
		w := New(launcher, cfg, clk, logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ran := make(chan error, 1)
		go func() { ran <- w.Run(ctx) }()

		first := awaitProcess(t, launcher)
		// The seeded heartbeat carries the launch instant; jumping the
		// clock past the timeout makes it stale without any file edits.
		clk.Advance(cfg.HeartbeatTimeout + time.Second)

		second := awaitProcess(t, launcher)
		if !first.wasKilled() {
			t.Fatal("expected the silent child killed")
		}
		_ = second
		cancel()
		<-ran
	})

	t.Run("fresh heartbeat keeps the child alive", func(t *testing.T) {
		launcher := newFakeLauncher()
		w := New(launcher, testConfig(t.TempDir()), clock.NewManual(time.Now()), logger)

		ctx, cancel := context.WithCancel(context.Background())
		ran := make(chan error, 1)
		go func() { ran <- w.Run(ctx) }()

		first := awaitProcess(t, launcher)
		time.Sleep(30 * time.Millisecond)
		if first.wasKilled() {
			t.Fatal("child with a fresh heartbeat must not be killed")
		}
		cancel()
		<-ran
	})
}
