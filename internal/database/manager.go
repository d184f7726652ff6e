package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	// ARCHITECTURAL DISCOVERY: Import SQLite driver but only reference in connection string
	_ "github.com/mattn/go-sqlite3"

	dbconfig "chatboard/pkg/database"
	"chatboard/pkg/interfaces"
)

// Manager implements the KeyValueStore interface on SQLite.
type Manager struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation // TECHNICAL: Single-writer pattern for SQLite
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // TECHNICAL: Protect closed status
}

// writeOperation represents a queued write against the store
type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager creates a new key-value store manager
func NewManager(config *dbconfig.Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	// ARCHITECTURAL DISCOVERY: SQLite connection string carries the same
	// optimizations as the per-connection pragmas below
	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// FUNCTIONAL DISCOVERY: Connection pool configuration critical for concurrent reads
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := applySQLiteOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite optimizations: %w", err)
	}

	if err := dbconfig.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	manager := &Manager{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100), // TECHNICAL: Buffer for write operations prevents blocking
		shutdown:     make(chan struct{}),
	}

	// ARCHITECTURAL DISCOVERY: Single-writer goroutine serializes every
	// mutation - including the read step of each Mutate - which is what makes
	// read-modify-write atomic with respect to concurrent requests
	manager.wg.Add(1)
	go manager.writeLoop()

	return manager, nil
}

// writeLoop processes all write operations in a single goroutine
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			// FUNCTIONAL DISCOVERY: Single attempt, no retry - storage
			// failures surface to the caller, who decides whether to retry
			err := op.operation(m.db)
			if err != nil {
				log.Printf("Store write failed: %v", err)
			}
			op.result <- err

		case <-m.shutdown:
			log.Println("Store write loop shutting down")
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion
func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	// TECHNICAL DISCOVERY: Check if manager is closed before attempting write
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return interfaces.ErrStoreClosed
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-m.shutdown:
		return interfaces.ErrStoreClosed
	}
}

// Get retrieves the current value for a key.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	// ARCHITECTURAL DISCOVERY: Read operations can be concurrent - WAL mode
	// lets readers proceed while the writer goroutine works
	var value string
	err := m.db.QueryRowContext(ctx,
		"SELECT value FROM kv_records WHERE key = ?", key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	return []byte(value), nil
}

// Put stores a value for a key, replacing any previous value.
func (m *Manager) Put(ctx context.Context, key string, value []byte) error {
	return m.executeWrite(func(db *sql.DB) error {
		if err := upsert(ctx, db, key, value); err != nil {
			return fmt.Errorf("failed to put key %s: %w", key, err)
		}
		return nil
	})
}

// Mutate applies fn to the current value of key and persists the result as a
// single atomic unit with respect to all other writes.
func (m *Manager) Mutate(ctx context.Context, key string, fn interfaces.MutateFunc) error {
	return m.executeWrite(func(db *sql.DB) error {
		// FUNCTIONAL DISCOVERY: The read happens inside the writer goroutine,
		// so no other mutation can interleave between read and write
		var current []byte
		found := true

		var value string
		err := db.QueryRowContext(ctx,
			"SELECT value FROM kv_records WHERE key = ?", key,
		).Scan(&value)
		if err != nil {
			if err != sql.ErrNoRows {
				return fmt.Errorf("failed to read key %s: %w", key, err)
			}
			found = false
		} else {
			current = []byte(value)
		}

		next, err := fn(current, found)
		if err != nil {
			// Mutation function rejected the update - nothing is written
			return err
		}

		if err := upsert(ctx, db, key, next); err != nil {
			return fmt.Errorf("failed to write key %s: %w", key, err)
		}
		return nil
	})
}

// upsert writes a key-value pair, replacing any existing row.
func upsert(ctx context.Context, db *sql.DB, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv_records (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	return err
}

// HealthCheck validates store connectivity
func (m *Manager) HealthCheck(ctx context.Context) error {
	// FUNCTIONAL DISCOVERY: Health check validates both connectivity and basic operations
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, "SELECT COUNT(*) FROM kv_records LIMIT 1")
	if err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return rows.Err()
}

// GetDB returns the underlying database connection for schema validation
func (m *Manager) GetDB() *sql.DB {
	return m.db
}

// Close shuts down the store manager
func (m *Manager) Close() error {
	// TECHNICAL DISCOVERY: Prevent multiple close operations
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil // Already closed
	}
	m.closed = true
	m.mu.Unlock()

	// ARCHITECTURAL DISCOVERY: Graceful shutdown requires careful goroutine coordination
	close(m.shutdown)
	m.wg.Wait() // Wait for write loop to finish processing

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// applySQLiteOptimizations applies performance optimizations
func applySQLiteOptimizations(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",   // Write-Ahead Logging for concurrency
		"PRAGMA synchronous = NORMAL", // Balance safety and performance
		"PRAGMA cache_size = -64000",  // 64MB cache
		"PRAGMA temp_store = MEMORY",  // Use memory for temporary tables
		"PRAGMA busy_timeout = 5000",  // 5 second timeout for write coordination
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	return nil
}
