package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"chatboard/internal/api"
	"chatboard/internal/config"
	"chatboard/internal/database"
	"chatboard/internal/grouplog"
	"chatboard/internal/presence"
	"chatboard/internal/registry"
	pkgdatabase "chatboard/pkg/database"
)

// Application coordinates all system components
// Clean dependency injection pattern with proper initialization order
type Application struct {
	config     *config.Config
	store      *database.Manager
	tracker    *presence.Tracker
	logs       *grouplog.Store
	registry   *registry.Store
	apiServer  *api.Server
	httpServer *http.Server
}

// NewApplication creates a new application instance with all components initialized
// Component initialization follows strict dependency order:
// Storage → Presence → Group logs → Registry → API → HTTP
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Validate configuration before component initialization
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// STEP 1: Ensure the storage root exists before opening the store
	if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	// STEP 2: Initialize the key-value substrate (foundation layer)
	dbConfig := &pkgdatabase.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	}

	store, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	// STEP 3: Initialize the three domain stores over the substrate
	tracker := presence.NewTracker(store)
	logs := grouplog.NewStore(store)
	regs := registry.NewStore(store)

	// STEP 4: Initialize API server with all business dependencies
	apiServer := api.NewServer(tracker, logs, regs, store, cfg.API.AppendRateLimit)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		tracker:    tracker,
		logs:       logs,
		registry:   regs,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// Start brings the HTTP server up and verifies it is accepting connections.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting chatboard application on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Verify server is ready before returning
	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("Chatboard application started successfully")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts components down in reverse dependency order: HTTP → store.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down chatboard application")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.store.Close(); err != nil {
		log.Printf("Store shutdown error: %v", err)
	}

	log.Printf("Chatboard application shutdown complete")
	return nil
}
