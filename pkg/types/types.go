package types

import (
	"time"
)

// Storage keys for the singleton records in the key-value substrate.
// ARCHITECTURAL DISCOVERY: Group logs use a key prefix rather than the bare
// group name so groups can never collide with the singleton records
const (
	KeyOnlineUsers   = "online_users"
	KeyRegistrations = "registrations"
	KeyGroupRoster   = "groups"
	GroupKeyPrefix   = "group:"
)

// GroupKey returns the substrate key backing a group's chat log.
func GroupKey(groupName string) string {
	return GroupKeyPrefix + groupName
}

// Message is a single entry in a group's chat log.
// FUNCTIONAL DISCOVERY: Messages are immutable after append - the id is a
// per-group counter rendered as a decimal string, strictly increasing in
// assignment order, never derived from the wall clock
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Registration is a pending account-approval request.
// Upserted by username: re-submitting replaces the previous request.
type Registration struct {
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RegistrationPending is the status assigned to new registrations.
const RegistrationPending = "pending"

// EnsureOutcome reports the result of an ensure-group operation for one name.
type EnsureOutcome string

const (
	OutcomeCreated       EnsureOutcome = "created"
	OutcomeAlreadyExists EnsureOutcome = "already-existed"
	OutcomeFailed        EnsureOutcome = "failed"
)
