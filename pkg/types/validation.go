package types

import (
	"regexp"
)

// FUNCTIONAL DISCOVERY: Regex compiled once at package initialization
// for better performance in high-frequency validation scenarios
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUsername checks if a username meets format requirements.
// FUNCTIONAL DISCOVERY: 1-50 character limit keeps usernames safe as
// storage-key components and reasonable for UI display
func IsValidUsername(username string) bool {
	if len(username) < 1 || len(username) > 50 {
		return false
	}
	return nameRegex.MatchString(username)
}

// IsValidGroupName checks if a group name meets format requirements.
// Group names back storage keys, so the character set is restricted
// exactly like usernames.
func IsValidGroupName(groupName string) bool {
	if len(groupName) < 1 || len(groupName) > 50 {
		return false
	}
	return nameRegex.MatchString(groupName)
}

// Validate ensures the message meets all requirements before it is appended.
func (m *Message) Validate() error {
	if !IsValidUsername(m.Username) {
		return ErrInvalidUsername
	}
	if m.Body == "" {
		return ErrEmptyMessageBody
	}
	// TECHNICAL DISCOVERY: 64KB cap keeps single records small enough that
	// whole-log reads stay cheap at expected group sizes
	if len(m.Body) > 65536 {
		return ErrMessageTooLarge
	}
	return nil
}

// Validate ensures the registration meets all requirements.
func (r *Registration) Validate() error {
	if !IsValidUsername(r.Username) {
		return ErrInvalidUsername
	}
	return nil
}
