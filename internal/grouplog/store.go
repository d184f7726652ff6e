package grouplog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"chatboard/pkg/interfaces"
	"chatboard/pkg/types"
)

// logRecord is the persisted form of one group's chat log.
// ARCHITECTURAL DISCOVERY: The id counter lives in the same record as the
// messages, so the Mutate that appends a message also advances the counter -
// ids stay unique and strictly increasing even under concurrent appends
type logRecord struct {
	NextID   int64           `json:"next_id"`
	Messages []types.Message `json:"messages"`
}

func newLogRecord() *logRecord {
	return &logRecord{NextID: 1, Messages: []types.Message{}}
}

// Store implements the GroupLogStore interface on the key-value substrate.
// One substrate key per group; messages are append-only and ordered by
// assignment, not by wall clock.
type Store struct {
	store interfaces.KeyValueStore
	now   func() time.Time
}

// NewStore creates a new group log store
func NewStore(store interfaces.KeyValueStore) *Store {
	return &Store{store: store, now: time.Now}
}

// EnsureGroup creates an empty log for the group if none exists. Idempotent.
func (s *Store) EnsureGroup(ctx context.Context, groupName string) (bool, error) {
	if !types.IsValidGroupName(groupName) {
		return false, ErrInvalidGroupName
	}

	created := false
	err := s.store.Mutate(ctx, types.GroupKey(groupName), func(current []byte, found bool) ([]byte, error) {
		if found {
			// Existing log is left untouched
			return current, nil
		}
		created = true
		return json.Marshal(newLogRecord())
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if created {
		log.Printf("Created group log: %s", groupName)
	}
	return created, nil
}

// EnsureGroups applies EnsureGroup to each name with per-name outcomes.
// FUNCTIONAL DISCOVERY: Partial success is acceptable - one name's failure
// must not block the rest, so failures are recorded per-name and the first
// one is returned for the caller's status decision
func (s *Store) EnsureGroups(ctx context.Context, groupNames []string) (map[string]types.EnsureOutcome, error) {
	results := make(map[string]types.EnsureOutcome, len(groupNames))
	var firstErr error

	for _, name := range groupNames {
		created, err := s.EnsureGroup(ctx, name)
		switch {
		case err != nil:
			results[name] = types.OutcomeFailed
			if firstErr == nil {
				firstErr = fmt.Errorf("group %s: %w", name, err)
			}
		case created:
			results[name] = types.OutcomeCreated
		default:
			results[name] = types.OutcomeAlreadyExists
		}
	}

	return results, firstErr
}

// AppendMessage assigns an id and timestamp and atomically appends a message
// to the group's log, creating the log if absent.
func (s *Store) AppendMessage(ctx context.Context, groupName, username, body string) (*types.Message, error) {
	if !types.IsValidGroupName(groupName) {
		return nil, ErrInvalidGroupName
	}

	msg := &types.Message{Username: username, Body: body}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	err := s.store.Mutate(ctx, types.GroupKey(groupName), func(current []byte, found bool) ([]byte, error) {
		record, err := decodeLogRecord(current, found)
		if err != nil {
			return nil, err
		}

		// Id assignment and append happen under the same mutation, so two
		// concurrent posts can never share an id or drop a message
		msg.ID = strconv.FormatInt(record.NextID, 10)
		msg.Timestamp = s.now().UTC()
		record.NextID++
		record.Messages = append(record.Messages, *msg)

		return json.Marshal(record)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("Appended message: group=%s user=%s id=%s", groupName, username, msg.ID)
	return msg, nil
}

// ReadLog returns the group's messages in append order, creating an empty
// log for a never-seen group.
func (s *Store) ReadLog(ctx context.Context, groupName string) ([]types.Message, error) {
	if !types.IsValidGroupName(groupName) {
		return nil, ErrInvalidGroupName
	}

	var messages []types.Message
	// FUNCTIONAL DISCOVERY: Read-or-create goes through Mutate so the
	// implicit creation of a missing log is atomic with concurrent appends
	err := s.store.Mutate(ctx, types.GroupKey(groupName), func(current []byte, found bool) ([]byte, error) {
		record, err := decodeLogRecord(current, found)
		if err != nil {
			return nil, err
		}
		messages = record.Messages
		if found {
			return current, nil
		}
		return json.Marshal(record)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if messages == nil {
		messages = []types.Message{}
	}
	return messages, nil
}

// decodeLogRecord parses a persisted group log, defaulting to a fresh record.
func decodeLogRecord(current []byte, found bool) (*logRecord, error) {
	if !found {
		return newLogRecord(), nil
	}
	var record logRecord
	if err := json.Unmarshal(current, &record); err != nil {
		return nil, fmt.Errorf("corrupt group log: %w", err)
	}
	if record.NextID < 1 {
		record.NextID = int64(len(record.Messages)) + 1
	}
	return &record, nil
}
