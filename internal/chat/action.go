package chat

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind discriminates callback actions. The wire payload is the
// kind name, optionally followed by underscore-separated numeric ids
// (e.g. "approve_12_34", "view_event_7"). Payloads are decoded exactly
// once, at the dispatch boundary; everything downstream works with the
// typed Action.
type ActionKind string

const (
	ActionViewPending      ActionKind = "view_pending"
	ActionManageEvents     ActionKind = "manage_events"
	ActionAdminBack        ActionKind = "admin_back"
	ActionCreateEvent      ActionKind = "create_event"
	ActionViewEvent        ActionKind = "view_event"
	ActionSetActive        ActionKind = "set_active"
	ActionDeleteEvent      ActionKind = "delete_event"
	ActionViewParticipants ActionKind = "view_participants"
	ActionManageDiscounts  ActionKind = "manage_discounts"
	ActionCreateDiscount   ActionKind = "create_discount"
	ActionDeleteDiscount   ActionKind = "delete_discount"
	ActionEventPaidYes     ActionKind = "event_paid_yes"
	ActionEventPaidNo      ActionKind = "event_paid_no"
	ActionDiscountPercent  ActionKind = "discount_percent"
	ActionDiscountFixed    ActionKind = "discount_fixed"
	ActionApprove          ActionKind = "approve"
	ActionReject           ActionKind = "reject"
)

// Action is a decoded callback payload.
type Action struct {
	Kind           ActionKind
	EventID        int64
	DiscountID     int64
	RegistrationID int64
	UserID         int64
}

// Payload encodes the action for a callback button.
func (a Action) Payload() string {
	switch a.Kind {
	case ActionViewEvent, ActionSetActive, ActionDeleteEvent, ActionViewParticipants, ActionManageDiscounts:
		return fmt.Sprintf("%s_%d", a.Kind, a.EventID)
	case ActionDeleteDiscount:
		return fmt.Sprintf("%s_%d", a.Kind, a.DiscountID)
	case ActionApprove, ActionReject:
		return fmt.Sprintf("%s_%d_%d", a.Kind, a.RegistrationID, a.UserID)
	default:
		return string(a.Kind)
	}
}

// ParseAction decodes a callback payload into a tagged Action.
func ParseAction(payload string) (Action, error) {
	switch ActionKind(payload) {
	case ActionViewPending, ActionManageEvents, ActionAdminBack, ActionCreateEvent,
		ActionCreateDiscount, ActionEventPaidYes, ActionEventPaidNo,
		ActionDiscountPercent, ActionDiscountFixed:
		return Action{Kind: ActionKind(payload)}, nil
	}

	for _, kind := range []ActionKind{ActionViewEvent, ActionSetActive, ActionDeleteEvent, ActionViewParticipants, ActionManageDiscounts} {
		if id, ok := trailingID(payload, kind); ok {
			return Action{Kind: kind, EventID: id}, nil
		}
	}
	if id, ok := trailingID(payload, ActionDeleteDiscount); ok {
		return Action{Kind: ActionDeleteDiscount, DiscountID: id}, nil
	}

	for _, kind := range []ActionKind{ActionApprove, ActionReject} {
		prefix := string(kind) + "_"
		if !strings.HasPrefix(payload, prefix) {
			continue
		}
		rest := strings.Split(payload[len(prefix):], "_")
		if len(rest) != 2 {
			return Action{}, fmt.Errorf("malformed %s payload %q", kind, payload)
		}
		regID, err1 := strconv.ParseInt(rest[0], 10, 64)
		userID, err2 := strconv.ParseInt(rest[1], 10, 64)
		if err1 != nil || err2 != nil {
			return Action{}, fmt.Errorf("malformed %s payload %q", kind, payload)
		}
		return Action{Kind: kind, RegistrationID: regID, UserID: userID}, nil
	}

	return Action{}, fmt.Errorf("unknown callback payload %q", payload)
}

func trailingID(payload string, kind ActionKind) (int64, bool) {
	prefix := string(kind) + "_"
	if !strings.HasPrefix(payload, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(payload[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
