package app

import (
	"context"
	"testing"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/clock"
	"github.com/Pijatow/isocrates-bot/internal/domain"
)

type fakeReminderEventStore struct {
	events []domain.Event
}

func (f *fakeReminderEventStore) WithPendingReminders(context.Context) ([]domain.Event, error) {
	return f.events, nil
}

type fakeAttendeeStore struct {
	attendees map[int64][]int64
	errFor    map[int64]error
}

func (f *fakeAttendeeStore) ConfirmedAttendees(_ context.Context, eventID int64) ([]int64, error) {
	if err := f.errFor[eventID]; err != nil {
		return nil, err
	}
	return f.attendees[eventID], nil
}

func makeReminderSvc(events []domain.Event, attendees map[int64][]int64, clk clock.Clock) (*ReminderService, *recordingSender) {
	sender := &recordingSender{}
	svc := NewReminderService(
		&fakeReminderEventStore{events: events},
		&fakeAttendeeStore{attendees: attendees},
		sender, clk, discardLogger(),
	)
	return svc, sender
}

func TestReminderTick(t *testing.T) {
	t.Parallel()

	// Event starts 2026-10-01 18:00; reminders 24h and 1h before.
	event := domain.Event{
		ID:        7,
		Name:      "Summer Workshop",
		Date:      "2026-10-01 18:00",
		Reminders: "24, 1",
		IsActive:  true,
	}
	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	attendees := map[int64][]int64{7: {42, 43}}

	t.Run("fires exactly at the reminder moment", func(t *testing.T) {
		clk := clock.NewManual(start.Add(-24 * time.Hour))
		svc, sender := makeReminderSvc([]domain.Event{event}, attendees, clk)

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 2 {
			t.Fatalf("expected 2 reminders, got %d", len(sender.messages))
		}
		if sender.messages[0].ChatID != 42 || sender.messages[1].ChatID != 43 {
			t.Fatalf("unexpected recipients: %+v", sender.messages)
		}
	})

	t.Run("fires inside the minute window", func(t *testing.T) {
		clk := clock.NewManual(start.Add(-time.Hour).Add(30 * time.Second))
		svc, sender := makeReminderSvc([]domain.Event{event}, attendees, clk)

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 2 {
			t.Fatalf("expected 2 reminders, got %d", len(sender.messages))
		}
	})

	t.Run("silent before the window opens", func(t *testing.T) {
		clk := clock.NewManual(start.Add(-24*time.Hour - time.Second))
		svc, sender := makeReminderSvc([]domain.Event{event}, attendees, clk)

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 0 {
			t.Fatalf("expected no reminders, got %d", len(sender.messages))
		}
	})

	t.Run("a missed reminder is skipped, not fired late", func(t *testing.T) {
		clk := clock.NewManual(start.Add(-24 * time.Hour).Add(reminderWindow))
		svc, sender := makeReminderSvc([]domain.Event{event}, attendees, clk)

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 0 {
			t.Fatalf("expected no reminders past the window, got %d", len(sender.messages))
		}
	})

	t.Run("malformed event date is skipped without aborting the pass", func(t *testing.T) {
		broken := event
		broken.ID = 8
		broken.Date = "next friday"
		clk := clock.NewManual(start.Add(-time.Hour))
		svc, sender := makeReminderSvc([]domain.Event{broken, event}, attendees, clk)

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 2 {
			t.Fatalf("expected the healthy event's reminders, got %d", len(sender.messages))
		}
	})

	t.Run("attendee lookup failure for one event does not stop the pass", func(t *testing.T) {
		broken := event
		broken.ID = 8
		clk := clock.NewManual(start.Add(-time.Hour))
		sender := &recordingSender{}
		svc := NewReminderService(
			&fakeReminderEventStore{events: []domain.Event{broken, event}},
			&fakeAttendeeStore{
				attendees: attendees,
				errFor:    map[int64]error{8: context.DeadlineExceeded},
			},
			sender, clk, discardLogger(),
		)

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 2 {
			t.Fatalf("expected the healthy event's reminders, got %d", len(sender.messages))
		}
	})

	t.Run("delivery failure to one recipient does not stop the rest", func(t *testing.T) {
		clk := clock.NewManual(start.Add(-time.Hour))
		svc, sender := makeReminderSvc([]domain.Event{event}, attendees, clk)
		sender.err = context.DeadlineExceeded

		if err := svc.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.messages) != 2 {
			t.Fatalf("expected both sends attempted, got %d", len(sender.messages))
		}
	})

	t.Run("network down aborts the pass", func(t *testing.T) {
		clk := clock.NewManual(start.Add(-time.Hour))
		svc, sender := makeReminderSvc([]domain.Event{event}, attendees, clk)
		sender.err = chat.ErrNetworkDown

		if err := svc.Tick(context.Background()); err == nil {
			t.Fatal("expected the network-down error to surface")
		}
	})
}
