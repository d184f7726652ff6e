package interfaces

import (
	"context"

	"chatboard/pkg/types"
)

// RegistrationStore manages account-approval requests and the group roster.
// FUNCTIONAL DISCOVERY: Save upserts by username so a re-submitted request
// replaces the pending one instead of duplicating it
type RegistrationStore interface {
	// ListRegistrations returns all pending registration requests.
	ListRegistrations(ctx context.Context) ([]types.Registration, error)

	// SaveRegistration inserts the request, or replaces an existing request
	// with the same username.
	SaveRegistration(ctx context.Context, reg types.Registration) error

	// DeleteRegistration removes the request for username. Deleting an
	// absent request is a no-op.
	DeleteRegistration(ctx context.Context, username string) error

	// ListGroups returns the group roster.
	ListGroups(ctx context.Context) ([]string, error)

	// SaveGroups replaces the whole group roster.
	SaveGroups(ctx context.Context, groupNames []string) error
}
