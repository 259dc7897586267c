package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegistrationStatus string

const (
	StatusPendingVerification RegistrationStatus = "pending_verification"
	StatusConfirmed           RegistrationStatus = "confirmed"
	StatusRejected            RegistrationStatus = "rejected"
)

// Registration ties a user to an event. A ticket code is assigned
// exactly once, when the registration is confirmed, and is never
// cleared or reassigned afterwards.
type Registration struct {
	ID            int64
	UserID        int64
	EventID       int64
	Status        RegistrationStatus
	ReceiptFileID *string
	DiscountID    *int64
	FinalFee      decimal.Decimal
	TicketCode    *string
	RegisteredAt  time.Time
}

// PendingReview is a pending registration joined with the registrant's
// identity, as presented to an admin for approval.
type PendingReview struct {
	RegistrationID int64
	UserID         int64
	ReceiptFileID  string
	Username       string
	FirstName      string
	EventName      string
}

// Participant is one row of an event's participant listing.
type Participant struct {
	UserID     int64
	Username   string
	FirstName  string
	Status     RegistrationStatus
	FinalFee   decimal.Decimal
	TicketCode *string
}
