package interfaces

import (
	"context"
)

// PresenceTracker maintains the set of currently-online usernames.
// FUNCTIONAL DISCOVERY: Both mark operations are idempotent - repeating a
// login or logout leaves the set exactly as a single call would
type PresenceTracker interface {
	// MarkOnline records a user as online. Returns a human-readable
	// confirmation. Marking an already-online user is a no-op.
	MarkOnline(ctx context.Context, username string) (string, error)

	// MarkOffline records a user as offline. Removing an absent user is a
	// no-op, not an error.
	MarkOffline(ctx context.Context, username string) (string, error)

	// ListOnline returns a point-in-time snapshot of online usernames in a
	// consistent (sorted) order. Callers must not assume stability of the
	// set across calls.
	ListOnline(ctx context.Context) ([]string, error)
}
