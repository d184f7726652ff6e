package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"chatboard/pkg/interfaces"
	"chatboard/pkg/types"
)

// Tracker implements the PresenceTracker interface on the key-value substrate.
// The online set lives under a single key, so every membership change is one
// atomic Mutate and concurrent logins cannot lose each other's updates.
type Tracker struct {
	store interfaces.KeyValueStore
}

// NewTracker creates a new presence tracker
func NewTracker(store interfaces.KeyValueStore) *Tracker {
	return &Tracker{store: store}
}

// MarkOnline records a user as online. Idempotent.
func (t *Tracker) MarkOnline(ctx context.Context, username string) (string, error) {
	if !types.IsValidUsername(username) {
		return "", ErrInvalidUsername
	}

	err := t.store.Mutate(ctx, types.KeyOnlineUsers, func(current []byte, found bool) ([]byte, error) {
		users, err := decodeUserSet(current, found)
		if err != nil {
			return nil, err
		}

		// Membership check keeps the operation idempotent - a duplicate
		// login leaves the set unchanged
		for _, u := range users {
			if u == username {
				return encodeUserSet(users)
			}
		}

		return encodeUserSet(append(users, username))
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("Marked user online: %s", username)
	return fmt.Sprintf("user %s marked online", username), nil
}

// MarkOffline records a user as offline. Removing an absent user is a no-op.
func (t *Tracker) MarkOffline(ctx context.Context, username string) (string, error) {
	if !types.IsValidUsername(username) {
		return "", ErrInvalidUsername
	}

	err := t.store.Mutate(ctx, types.KeyOnlineUsers, func(current []byte, found bool) ([]byte, error) {
		users, err := decodeUserSet(current, found)
		if err != nil {
			return nil, err
		}

		remaining := make([]string, 0, len(users))
		for _, u := range users {
			if u != username {
				remaining = append(remaining, u)
			}
		}

		return encodeUserSet(remaining)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("Marked user offline: %s", username)
	return fmt.Sprintf("user %s marked offline", username), nil
}

// ListOnline returns a point-in-time snapshot of online usernames.
func (t *Tracker) ListOnline(ctx context.Context) ([]string, error) {
	current, err := t.store.Get(ctx, types.KeyOnlineUsers)
	if err != nil {
		if err == interfaces.ErrKeyNotFound {
			// Nobody has logged in yet - the set starts empty
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	var users []string
	if err := json.Unmarshal(current, &users); err != nil {
		return nil, fmt.Errorf("%w: corrupt online set: %v", ErrStorageFailure, err)
	}

	// Sorted snapshot gives callers a consistent order without promising
	// stability across calls
	sort.Strings(users)
	if users == nil {
		users = []string{}
	}
	return users, nil
}

// decodeUserSet parses the persisted online set, defaulting to empty.
func decodeUserSet(current []byte, found bool) ([]string, error) {
	if !found {
		return []string{}, nil
	}
	var users []string
	if err := json.Unmarshal(current, &users); err != nil {
		return nil, fmt.Errorf("corrupt online set: %w", err)
	}
	return users, nil
}

func encodeUserSet(users []string) ([]byte, error) {
	if users == nil {
		users = []string{}
	}
	return json.Marshal(users)
}
