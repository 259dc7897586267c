package app

import (
	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// RegState is the position of one user inside the registration flow.
type RegState string

const (
	RegStateIdle           RegState = ""
	RegStateChoosing       RegState = "choosing"
	RegStateDiscountPrompt RegState = "discount_prompt"
	RegStateDiscountCode   RegState = "discount_code"
	RegStateReceipt        RegState = "awaiting_receipt"
)

// Conversation is the transient working data of one registration
// conversation. It is owned by the dispatcher for the chat, passed
// into each transition and replaced by the returned value; nothing is
// mutated through ambient lookups. The zero value means no
// conversation in progress.
type Conversation struct {
	State RegState

	// Event is the active event snapshot taken at Start.
	Event domain.Event
	// FinalFee is the fee after any discount, fixed once computed.
	FinalFee decimal.Decimal
	// DiscountID is set when a valid code has been applied.
	DiscountID *int64
}

// AdminState is the position of an operator inside the admin menus.
type AdminState string

const (
	AdminStateIdle              AdminState = ""
	AdminStateChoosing          AdminState = "admin_choosing"
	AdminStateManagingEvents    AdminState = "managing_events"
	AdminStateViewingEvent      AdminState = "viewing_event"
	AdminStateEventName         AdminState = "event_name"
	AdminStateEventDescription  AdminState = "event_description"
	AdminStateEventDate         AdminState = "event_date"
	AdminStateEventPaid         AdminState = "event_paid"
	AdminStateEventFee          AdminState = "event_fee"
	AdminStateEventPayment      AdminState = "event_payment_details"
	AdminStateEventReminders    AdminState = "event_reminders"
	AdminStateManagingDiscounts AdminState = "managing_discounts"
	AdminStateDiscountCode      AdminState = "discount_code"
	AdminStateDiscountKind      AdminState = "discount_kind"
	AdminStateDiscountValue     AdminState = "discount_value"
	AdminStateDiscountUses      AdminState = "discount_uses"
)

// EventDraft accumulates the event-creation wizard's answers.
type EventDraft struct {
	Name           string
	Description    string
	Date           string
	IsPaid         bool
	Fee            decimal.Decimal
	PaymentDetails string
	Reminders      string
}

// DiscountDraft accumulates the discount-creation wizard's answers.
type DiscountDraft struct {
	Code  string
	Kind  domain.DiscountKind
	Value decimal.Decimal
	Uses  int
}

// AdminConversation is the transient working data of one admin
// conversation; same ownership rules as Conversation.
type AdminConversation struct {
	State           AdminState
	SelectedEventID int64
	EventDraft      EventDraft
	DiscountDraft   DiscountDraft
}
