package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountID uniquely identifies a player account across the network
type AccountID string

// ParseAccountID validates and canonicalizes an account identifier
func ParseAccountID(s string) (AccountID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidAccountID
	}
	return AccountID(id.String()), nil
}

// ConnectionID identifies a single live connection. A player may reconnect
// many times; each connection gets a fresh ConnectionID.
type ConnectionID string

// PlayerRecord is the durable verification state for one account.
//
// CooldownUntil is only ever set by a successful outcome; TimeoutUntil is
// only ever set by a failed or timed-out outcome. Both may be absent.
type PlayerRecord struct {
	AccountID         AccountID  `json:"account_id"`
	Username          string     `json:"username"`
	Verified          bool       `json:"verified"`
	TotalAttempts     int        `json:"total_attempts"`
	FailedAttempts    int        `json:"failed_attempts"`
	TimeoutUntil      *time.Time `json:"timeout_until,omitempty"`
	CooldownUntil     *time.Time `json:"cooldown_until,omitempty"`
	BypassGranted     bool       `json:"bypass_granted"`
	LastOriginAddress string     `json:"last_origin_address"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewPlayerRecord creates a fresh unverified record for an account
func NewPlayerRecord(id AccountID, username string, now time.Time) *PlayerRecord {
	return &PlayerRecord{
		AccountID: id,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimedOut reports whether the account is inside its penalty window
func (r *PlayerRecord) TimedOut(now time.Time) bool {
	return r.TimeoutUntil != nil && r.TimeoutUntil.After(now)
}

// InCooldown reports whether the account is inside its post-verification
// cooldown window
func (r *PlayerRecord) InCooldown(now time.Time) bool {
	return r.CooldownUntil != nil && r.CooldownUntil.After(now)
}

// Clone returns a deep copy of the record
func (r *PlayerRecord) Clone() *PlayerRecord {
	c := *r
	if r.TimeoutUntil != nil {
		t := *r.TimeoutUntil
		c.TimeoutUntil = &t
	}
	if r.CooldownUntil != nil {
		t := *r.CooldownUntil
		c.CooldownUntil = &t
	}
	return &c
}
