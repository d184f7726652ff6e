package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chatboard/pkg/interfaces"
	"chatboard/pkg/types"
)

// Mock KeyValueStore for testing
type mockStore struct {
	records map[string][]byte
	mu      sync.Mutex
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, exists := m.records[key]
	if !exists {
		return nil, interfaces.ErrKeyNotFound
	}
	return value, nil
}

func (m *mockStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
	return nil
}

func (m *mockStore) Mutate(ctx context.Context, key string, fn interfaces.MutateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, found := m.records[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	m.records[key] = next
	return nil
}

func (m *mockStore) HealthCheck(ctx context.Context) error { return nil }
func (m *mockStore) Close() error                          { return nil }

func TestStore_InterfaceCompliance(t *testing.T) {
	var _ interfaces.RegistrationStore = NewStore(newMockStore())
}

func TestStore_SaveUpsertsByUsername(t *testing.T) {
	store := NewStore(newMockStore())
	ctx := context.Background()

	first := types.Registration{Username: "alice", Reason: "first try"}
	if err := store.SaveRegistration(ctx, first); err != nil {
		t.Fatalf("SaveRegistration failed: %v", err)
	}

	second := types.Registration{Username: "alice", Reason: "second try"}
	if err := store.SaveRegistration(ctx, second); err != nil {
		t.Fatalf("second SaveRegistration failed: %v", err)
	}

	regs, err := store.ListRegistrations(ctx)
	if err != nil {
		t.Fatalf("ListRegistrations failed: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("re-submitting should replace, not duplicate: got %d entries", len(regs))
	}
	if regs[0].Reason != "second try" {
		t.Errorf("expected replaced request, got reason %q", regs[0].Reason)
	}
	if regs[0].Status != types.RegistrationPending {
		t.Errorf("expected pending status default, got %q", regs[0].Status)
	}
	if regs[0].SubmittedAt.IsZero() {
		t.Error("expected server-assigned submission time")
	}
}

func TestStore_DeleteRegistration(t *testing.T) {
	store := NewStore(newMockStore())
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		if err := store.SaveRegistration(ctx, types.Registration{Username: name}); err != nil {
			t.Fatalf("SaveRegistration failed: %v", err)
		}
	}

	if err := store.DeleteRegistration(ctx, "alice"); err != nil {
		t.Fatalf("DeleteRegistration failed: %v", err)
	}

	regs, err := store.ListRegistrations(ctx)
	if err != nil {
		t.Fatalf("ListRegistrations failed: %v", err)
	}
	if len(regs) != 1 || regs[0].Username != "bob" {
		t.Errorf("expected only bob left, got %+v", regs)
	}

	// Deleting an absent request is a no-op
	if err := store.DeleteRegistration(ctx, "ghost"); err != nil {
		t.Errorf("deleting absent registration should succeed: %v", err)
	}
}

func TestStore_ListEmpty(t *testing.T) {
	store := NewStore(newMockStore())
	ctx := context.Background()

	regs, err := store.ListRegistrations(ctx)
	if err != nil {
		t.Fatalf("ListRegistrations failed: %v", err)
	}
	if regs == nil || len(regs) != 0 {
		t.Errorf("expected empty slice, got %v", regs)
	}

	groups, err := store.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if groups == nil || len(groups) != 0 {
		t.Errorf("expected empty roster, got %v", groups)
	}
}

func TestStore_SaveGroupsReplacesRoster(t *testing.T) {
	store := NewStore(newMockStore())
	ctx := context.Background()

	if err := store.SaveGroups(ctx, []string{"team1", "team2"}); err != nil {
		t.Fatalf("SaveGroups failed: %v", err)
	}
	if err := store.SaveGroups(ctx, []string{"team3"}); err != nil {
		t.Fatalf("second SaveGroups failed: %v", err)
	}

	groups, err := store.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 1 || groups[0] != "team3" {
		t.Errorf("SaveGroups should replace the roster, got %v", groups)
	}
}

func TestStore_ValidationErrors(t *testing.T) {
	store := NewStore(newMockStore())
	ctx := context.Background()

	if err := store.SaveRegistration(ctx, types.Registration{Username: ""}); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("expected ErrInvalidUsername, got %v", err)
	}
	if err := store.DeleteRegistration(ctx, "no spaces allowed"); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("expected ErrInvalidUsername, got %v", err)
	}
	if err := store.SaveGroups(ctx, []string{"ok", "not ok"}); !errors.Is(err, ErrInvalidGroupName) {
		t.Errorf("expected ErrInvalidGroupName, got %v", err)
	}
}
