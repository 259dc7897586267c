package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/clock"
	"github.com/Pijatow/isocrates-bot/internal/domain"
)

// reminderWindow is how long past its scheduled moment a reminder is
// still considered due. Matches the tick interval, so each reminder
// fires on exactly one tick and reminders missed while the process was
// down are skipped rather than delivered late.
const reminderWindow = time.Minute

type ReminderEventStore interface {
	WithPendingReminders(ctx context.Context) ([]domain.Event, error)
}

type AttendeeStore interface {
	ConfirmedAttendees(ctx context.Context, eventID int64) ([]int64, error)
}

// ReminderService delivers scheduled event reminders. Tick is invoked
// once per minute by the dispatcher loop; it scans the active events
// and sends a reminder for every offset whose moment falls inside the
// current window.
type ReminderService struct {
	events ReminderEventStore
	regs   AttendeeStore
	sender chat.Sender
	clock  clock.Clock
	logger *slog.Logger
}

func NewReminderService(events ReminderEventStore, regs AttendeeStore, sender chat.Sender,
	clk clock.Clock, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		events: events,
		regs:   regs,
		sender: sender,
		clock:  clk,
		logger: logger.With("component", "reminder"),
	}
}

// Tick runs one reminder pass. Failures are isolated: a malformed
// event date or an undeliverable recipient is logged and skipped
// without aborting the rest of the pass.
func (s *ReminderService) Tick(ctx context.Context) error {
	events, err := s.events.WithPendingReminders(ctx)
	if err != nil {
		return fmt.Errorf("load events for reminders: %w", err)
	}

	now := s.clock.Now()
	for _, event := range events {
		startsAt, err := event.StartsAt()
		if err != nil {
			s.logger.Error("skipping event with malformed date",
				"event_id", event.ID, "date", event.Date)
			continue
		}

		for _, hours := range event.ReminderOffsets() {
			remindAt := startsAt.Add(-time.Duration(hours) * time.Hour)
			if now.Before(remindAt) || !now.Before(remindAt.Add(reminderWindow)) {
				continue
			}
			if err := s.broadcast(ctx, event, hours); err != nil {
				if errors.Is(err, chat.ErrNetworkDown) {
					return err
				}
				s.logger.Error("skipping event after broadcast failure",
					"event_id", event.ID, "hours_before", hours, "error", err)
			}
		}
	}
	return nil
}

func (s *ReminderService) broadcast(ctx context.Context, event domain.Event, hours int) error {
	attendees, err := s.regs.ConfirmedAttendees(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("load attendees for event %d: %w", event.ID, err)
	}

	text := reminderText(event, hours)
	sent := 0
	for _, userID := range attendees {
		err := s.sender.SendMessage(ctx, chat.Message{ChatID: userID, Text: text})
		if errors.Is(err, chat.ErrNetworkDown) {
			return err
		}
		if err != nil {
			s.logger.Error("reminder delivery failed",
				"event_id", event.ID, "user_id", userID, "error", err)
			continue
		}
		sent++
	}
	s.logger.Info("reminders sent",
		"event_id", event.ID, "hours_before", hours, "recipients", sent)
	return nil
}

func reminderText(event domain.Event, hours int) string {
	when := fmt.Sprintf("in %d hours", hours)
	if hours == 1 {
		when = "in 1 hour"
	}
	return fmt.Sprintf("⏰ Reminder: '%s' starts %s!\nDate: %s\n\n%s",
		event.Name, when, event.Date, event.Description)
}
