package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/clock"
	"github.com/Pijatow/isocrates-bot/internal/watchdog"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		botPath      = flag.String("bot", "./bot", "path to the bot binary")
		heartbeat    = flag.String("heartbeat", "heartbeat.txt", "heartbeat file written by the bot")
		timeout      = flag.Duration("timeout", 60*time.Second, "heartbeat age after which the bot is considered dead")
		pollInterval = flag.Duration("poll-interval", 15*time.Second, "how often to check the heartbeat")
		restartDelay = flag.Duration("restart-delay", 5*time.Second, "pause before relaunching the bot")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	botArgs := flag.Args()
	launcher := &watchdog.ExecLauncher{Path: *botPath, Args: botArgs}
	w := watchdog.New(launcher, watchdog.Config{
		HeartbeatPath:    *heartbeat,
		HeartbeatTimeout: *timeout,
		PollInterval:     *pollInterval,
		RestartDelay:     *restartDelay,
	}, clock.NewSystem(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watchdog running", "bot", *botPath, "heartbeat", *heartbeat)
	if err := w.Run(ctx); err != nil {
		logger.Error("watchdog stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("watchdog stopped")
}
