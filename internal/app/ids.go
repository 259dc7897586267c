package app

import (
	"strings"

	"github.com/google/uuid"
)

// NewTicketCode mints a unique ticket code for a confirmed
// registration. Uniqueness is enforced by the store; the UUID source
// makes collisions practically impossible.
func NewTicketCode() string {
	return "TKT-" + shortCode()
}

// NewReferralCode mints a user's referral code.
func NewReferralCode() string {
	return "REF-" + shortCode()
}

func shortCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}
