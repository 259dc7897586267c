// Package heartbeat implements the liveness marker shared between the
// bot and the watchdog. The bot writes a timestamp to a well-known file
// at a fixed interval; the watchdog restarts the bot when the file goes
// missing or stale. The file is the only coordination channel between
// the two processes.
package heartbeat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// Write records now as the latest liveness instant.
func Write(path string, now time.Time) error {
	data := now.UTC().Format(time.RFC3339Nano) + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return nil
}

// Read returns the last recorded liveness instant.
func Read(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse heartbeat: %w", err)
	}
	return t, nil
}

// Stale reports whether the heartbeat at path is missing, unreadable,
// or older than maxAge relative to now. Any failure to read counts as
// stale: a bot that cannot maintain its heartbeat needs restarting.
func Stale(path string, now time.Time, maxAge time.Duration) bool {
	t, err := Read(path)
	if err != nil {
		return true
	}
	return now.Sub(t) > maxAge
}

// Clear removes the heartbeat file. A missing file is not an error.
func Clear(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear heartbeat: %w", err)
	}
	return nil
}
