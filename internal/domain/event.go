package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventDateLayout is the format admins use when entering an event date.
// Dates are stored as entered and parsed when the scheduler needs them,
// so a malformed date degrades to a logged skip instead of blocking
// event creation.
const EventDateLayout = "2006-01-02 15:04"

// Event is a registerable event. At most one event is active at a time;
// the active event is the one open for registration.
type Event struct {
	ID             int64
	Name           string
	Description    string
	Date           string
	IsPaid         bool
	Fee            decimal.Decimal
	PaymentDetails string
	Reminders      string
	IsActive       bool
	CreatedAt      time.Time
}

// StartsAt parses the stored date string.
func (e Event) StartsAt() (time.Time, error) {
	t, err := time.Parse(EventDateLayout, e.Date)
	if err != nil {
		return time.Time{}, ErrInvalidEventDate
	}
	return t, nil
}

// ReminderOffsets parses the comma-separated hours-before-event list.
// Malformed or non-positive entries are dropped rather than failing the
// whole list.
func (e Event) ReminderOffsets() []int {
	var hours []int
	for _, part := range strings.Split(e.Reminders, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil || h <= 0 {
			continue
		}
		hours = append(hours, h)
	}
	return hours
}

// ParseReminderList validates admin input for the reminder wizard step.
// It requires at least one positive integer offset.
func ParseReminderList(input string) (string, error) {
	parts := strings.Split(input, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil || h <= 0 {
			return "", ErrInvalidReminders
		}
		cleaned = append(cleaned, strconv.Itoa(h))
	}
	if len(cleaned) == 0 {
		return "", ErrInvalidReminders
	}
	return strings.Join(cleaned, ","), nil
}
