package interfaces

import (
	"context"
)

// MutateFunc transforms the current value of a key into its next value.
// FUNCTIONAL DISCOVERY: found distinguishes "key absent" from "empty value"
// so callers can define their own empty defaults. Returning an error aborts
// the mutation with no write.
type MutateFunc func(current []byte, found bool) ([]byte, error)

// KeyValueStore is the durable substrate every piece of shared state lives in.
// ARCHITECTURAL DISCOVERY: The Mutate primitive is the only sanctioned way to
// change persisted state - expressing every update as one atomic
// read-modify-write is what prevents lost updates between concurrent requests
type KeyValueStore interface {
	// Get retrieves the current value for a key.
	// Returns ErrKeyNotFound when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value for a key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Mutate applies fn to the current value of key and persists the result
	// as a single atomic unit with respect to all other Mutate and Put calls.
	// TECHNICAL DISCOVERY: Callers must never implement updates as a Get
	// followed by a Put - interleaved requests would lose each other's writes
	Mutate(ctx context.Context, key string, fn MutateFunc) error

	// HealthCheck verifies the store is reachable and readable.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases resources.
	Close() error
}
