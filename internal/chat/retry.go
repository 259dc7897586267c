package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"
)

// ErrNetworkDown marks a send that kept failing with transient network
// errors until the attempt budget ran out. The bot treats it as the
// unrecoverable connectivity class: it removes its heartbeat and exits
// so the watchdog restarts it.
var ErrNetworkDown = errors.New("network unavailable")

// RetrySender wraps a Sender with bounded exponential-backoff retries
// on transient network errors. Non-network errors pass through
// unchanged on the first attempt.
type RetrySender struct {
	inner     Sender
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrySender(inner Sender, attempts int, baseDelay time.Duration, logger *slog.Logger) *RetrySender {
	if attempts < 1 {
		attempts = 1
	}
	return &RetrySender{
		inner:     inner,
		attempts:  attempts,
		baseDelay: baseDelay,
		logger:    logger.With("component", "network"),
		sleep:     sleepCtx,
	}
}

func (r *RetrySender) SendMessage(ctx context.Context, msg Message) error {
	return r.retry(ctx, "send message", func() error { return r.inner.SendMessage(ctx, msg) })
}

func (r *RetrySender) SendPhoto(ctx context.Context, msg PhotoMessage) error {
	return r.retry(ctx, "send photo", func() error { return r.inner.SendPhoto(ctx, msg) })
}

func (r *RetrySender) EditMessage(ctx context.Context, ref MessageRef, text string, keyboard [][]Button) error {
	return r.retry(ctx, "edit message", func() error { return r.inner.EditMessage(ctx, ref, text, keyboard) })
}

func (r *RetrySender) EditCaption(ctx context.Context, ref MessageRef, caption string) error {
	return r.retry(ctx, "edit caption", func() error { return r.inner.EditCaption(ctx, ref, caption) })
}

func (r *RetrySender) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return r.retry(ctx, "answer callback", func() error { return r.inner.AnswerCallback(ctx, callbackID, text, alert) })
}

func (r *RetrySender) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay << (attempt - 1)
			r.logger.Warn("retrying after network error",
				"op", op, "attempt", attempt+1, "max", r.attempts, "delay", delay, "error", lastErr)
			if err := r.sleep(ctx, delay); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
	}

	r.logger.Error("send failed after all retries", "op", op, "attempts", r.attempts, "error", lastErr)
	return fmt.Errorf("%s failed after %d attempts (%v): %w", op, r.attempts, lastErr, ErrNetworkDown)
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
