package domain

import "time"

// User is a chat platform user known to the bot. The ID is the
// platform-assigned user id, so users are upserted on every contact
// rather than created with generated ids.
type User struct {
	ID            int64
	Username      string
	FirstName     string
	ReferralCode  *string
	ReferredBy    *int64
	ReferralCount int
	CreatedAt     time.Time
}

// ReferralInfo is the subset of user state shown by /myreferral.
type ReferralInfo struct {
	Code  string
	Count int
}
