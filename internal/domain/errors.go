package domain

import "errors"

var (
	ErrNoActiveEvent         = errors.New("no active event")
	ErrEventNotFound         = errors.New("event not found")
	ErrInvalidEventDate      = errors.New("invalid event date")
	ErrInvalidReminders      = errors.New("invalid reminder offsets")
	ErrUserNotFound          = errors.New("user not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("registration already exists")
	ErrNoPendingRegistration = errors.New("no pending registration")
	ErrDiscountNotFound      = errors.New("discount code not found")
	ErrDiscountExhausted     = errors.New("discount code has no uses left")
	ErrDuplicateDiscount     = errors.New("discount code already exists for event")
)
