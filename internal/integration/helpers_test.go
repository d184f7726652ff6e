package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"chatboard/internal/api"
	"chatboard/internal/database"
	"chatboard/internal/grouplog"
	"chatboard/internal/presence"
	"chatboard/internal/registry"
	dbconfig "chatboard/pkg/database"
)

// testSystem wires the full stack over a real SQLite store for end-to-end tests.
type testSystem struct {
	server *httptest.Server
}

func setupSystem(t *testing.T) *testSystem {
	t.Helper()

	config := &dbconfig.Config{
		DatabasePath:    filepath.Join(t.TempDir(), "integration.db"),
		MaxConnections:  10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
	}

	store, err := database.NewManager(config)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	apiServer := api.NewServer(
		presence.NewTracker(store),
		grouplog.NewStore(store),
		registry.NewStore(store),
		store,
		1000,
	)

	server := httptest.NewServer(apiServer)
	t.Cleanup(server.Close)

	return &testSystem{server: server}
}

// postJSON issues a POST with a JSON body and decodes the JSON response into out.
func (ts *testSystem) postJSON(t *testing.T, path string, body interface{}, out interface{}) int {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	resp, err := http.Post(ts.server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response from %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

// getJSON issues a GET and decodes the JSON response into out.
func (ts *testSystem) getJSON(t *testing.T, path string, out interface{}) int {
	t.Helper()

	resp, err := http.Get(ts.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response from %s: %v", path, err)
		}
	}
	return resp.StatusCode
}
