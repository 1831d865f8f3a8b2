package domain

import "time"

// ActivationCodeTTL is how long an issued activation code stays usable.
const ActivationCodeTTL = 15 * time.Minute

// ActivationCode is a 6-digit single-use credential proving control of the
// registered email address. Exactly one row exists per user; regeneration
// overwrites the row in place instead of inserting a new one.
type ActivationCode struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	UserID      int64      `json:"user_id"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Consumed reports whether the code was already used. Consumption is terminal.
func (c *ActivationCode) Consumed() bool {
	return c != nil && c.ValidatedAt != nil
}

func (c *ActivationCode) Expired(now time.Time) bool {
	return c == nil || !c.ExpiresAt.After(now)
}

// Usable means unconsumed and unexpired.
func (c *ActivationCode) Usable(now time.Time) bool {
	return c != nil && !c.Consumed() && !c.Expired(now)
}
