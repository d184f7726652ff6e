package interfaces

import (
	"context"

	"chatboard/pkg/types"
)

// GroupLogStore owns the per-group append-only chat logs.
// ARCHITECTURAL DISCOVERY: Absent groups are never an error - both the read
// and append paths auto-create an empty log, matching the behavior clients
// already rely on
type GroupLogStore interface {
	// EnsureGroup creates an empty log for the group if none exists.
	// Reports whether the log was newly created. Idempotent.
	EnsureGroup(ctx context.Context, groupName string) (bool, error)

	// EnsureGroups applies EnsureGroup to each name, recording a per-name
	// outcome. One name's failure does not block the others; the first
	// failure encountered is also returned alongside the outcome map.
	EnsureGroups(ctx context.Context, groupNames []string) (map[string]types.EnsureOutcome, error)

	// AppendMessage validates, assigns an id and timestamp, and atomically
	// appends a message to the group's log, creating the log if absent.
	AppendMessage(ctx context.Context, groupName, username, body string) (*types.Message, error)

	// ReadLog returns the group's messages in append order. A never-seen
	// group is created empty and an empty sequence returned.
	ReadLog(ctx context.Context, groupName string) ([]types.Message, error)
}
