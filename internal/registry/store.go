package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chatboard/pkg/interfaces"
	"chatboard/pkg/types"
)

// Store implements the RegistrationStore interface on the key-value substrate.
// Registrations and the group roster each live under one key as JSON arrays;
// every change is a single atomic Mutate.
type Store struct {
	store interfaces.KeyValueStore
	now   func() time.Time
}

// NewStore creates a new registration store
func NewStore(store interfaces.KeyValueStore) *Store {
	return &Store{store: store, now: time.Now}
}

// ListRegistrations returns all pending registration requests.
func (s *Store) ListRegistrations(ctx context.Context) ([]types.Registration, error) {
	current, err := s.store.Get(ctx, types.KeyRegistrations)
	if err != nil {
		if err == interfaces.ErrKeyNotFound {
			return []types.Registration{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	var regs []types.Registration
	if err := json.Unmarshal(current, &regs); err != nil {
		return nil, fmt.Errorf("%w: corrupt registration list: %v", ErrStorageFailure, err)
	}
	if regs == nil {
		regs = []types.Registration{}
	}
	return regs, nil
}

// SaveRegistration inserts the request, or replaces an existing request with
// the same username.
func (s *Store) SaveRegistration(ctx context.Context, reg types.Registration) error {
	if err := reg.Validate(); err != nil {
		return ErrInvalidUsername
	}

	if reg.Status == "" {
		reg.Status = types.RegistrationPending
	}
	if reg.SubmittedAt.IsZero() {
		reg.SubmittedAt = s.now().UTC()
	}

	err := s.store.Mutate(ctx, types.KeyRegistrations, func(current []byte, found bool) ([]byte, error) {
		regs, err := decodeRegistrations(current, found)
		if err != nil {
			return nil, err
		}

		// Upsert by username - a re-submitted request replaces the pending one
		replaced := false
		for i := range regs {
			if regs[i].Username == reg.Username {
				regs[i] = reg
				replaced = true
				break
			}
		}
		if !replaced {
			regs = append(regs, reg)
		}

		return json.Marshal(regs)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("Saved registration: username=%s", reg.Username)
	return nil
}

// DeleteRegistration removes the request for username. No-op when absent.
func (s *Store) DeleteRegistration(ctx context.Context, username string) error {
	if !types.IsValidUsername(username) {
		return ErrInvalidUsername
	}

	err := s.store.Mutate(ctx, types.KeyRegistrations, func(current []byte, found bool) ([]byte, error) {
		regs, err := decodeRegistrations(current, found)
		if err != nil {
			return nil, err
		}

		remaining := make([]types.Registration, 0, len(regs))
		for _, r := range regs {
			if r.Username != username {
				remaining = append(remaining, r)
			}
		}

		return json.Marshal(remaining)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("Deleted registration: username=%s", username)
	return nil
}

// ListGroups returns the group roster.
func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	current, err := s.store.Get(ctx, types.KeyGroupRoster)
	if err != nil {
		if err == interfaces.ErrKeyNotFound {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	var groups []string
	if err := json.Unmarshal(current, &groups); err != nil {
		return nil, fmt.Errorf("%w: corrupt group roster: %v", ErrStorageFailure, err)
	}
	if groups == nil {
		groups = []string{}
	}
	return groups, nil
}

// SaveGroups replaces the whole group roster.
func (s *Store) SaveGroups(ctx context.Context, groupNames []string) error {
	for _, name := range groupNames {
		if !types.IsValidGroupName(name) {
			return fmt.Errorf("%w: %s", ErrInvalidGroupName, name)
		}
	}
	if groupNames == nil {
		groupNames = []string{}
	}

	data, err := json.Marshal(groupNames)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if err := s.store.Put(ctx, types.KeyGroupRoster, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("Saved group roster: %d groups", len(groupNames))
	return nil
}

// decodeRegistrations parses the persisted registration list, defaulting to empty.
func decodeRegistrations(current []byte, found bool) ([]types.Registration, error) {
	if !found {
		return []types.Registration{}, nil
	}
	var regs []types.Registration
	if err := json.Unmarshal(current, &regs); err != nil {
		return nil, fmt.Errorf("corrupt registration list: %w", err)
	}
	return regs, nil
}
