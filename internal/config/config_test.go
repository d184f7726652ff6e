package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	if config.Database.Path == "" {
		t.Error("Default database path should not be empty")
	}

	if config.HTTP.Port <= 0 {
		t.Error("Default HTTP port should be positive")
	}

	if config.HTTP.ReadTimeout <= 0 {
		t.Error("Default read timeout should be positive")
	}

	if config.API.AppendRateLimit <= 0 {
		t.Error("Default append rate limit should be positive")
	}
}

func TestConfig_Validate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Valid config should pass validation: %v", err)
	}

	config = DefaultConfig()
	config.HTTP.Port = -1
	if err := config.Validate(); err == nil {
		t.Error("Invalid port should fail validation")
	}

	config = DefaultConfig()
	config.Database.Path = ""
	if err := config.Validate(); err == nil {
		t.Error("Empty database path should fail validation")
	}

	config = DefaultConfig()
	config.Database = nil
	if err := config.Validate(); err == nil {
		t.Error("Missing database section should fail validation")
	}

	config = DefaultConfig()
	config.API.AppendRateLimit = 0
	if err := config.Validate(); err == nil {
		t.Error("Zero rate limit should fail validation")
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("CHATBOARD_HTTP_PORT", "9999")
	t.Setenv("CHATBOARD_DATABASE_PATH", "/tmp/env-test.db")
	t.Setenv("CHATBOARD_HTTP_READ_TIMEOUT", "45s")
	t.Setenv("CHATBOARD_API_APPEND_RATE_LIMIT", "7")

	config := LoadFromEnv()

	if config.HTTP.Port != 9999 {
		t.Errorf("expected port 9999 from env, got %d", config.HTTP.Port)
	}
	if config.Database.Path != "/tmp/env-test.db" {
		t.Errorf("expected env database path, got %s", config.Database.Path)
	}
	if config.HTTP.ReadTimeout != 45*time.Second {
		t.Errorf("expected 45s read timeout, got %v", config.HTTP.ReadTimeout)
	}
	if config.API.AppendRateLimit != 7 {
		t.Errorf("expected rate limit 7, got %d", config.API.AppendRateLimit)
	}
}

func TestConfig_LoadFromEnvInvalidValuesIgnored(t *testing.T) {
	t.Setenv("CHATBOARD_HTTP_PORT", "not-a-number")

	config := LoadFromEnv()
	if config.HTTP.Port != DefaultConfig().HTTP.Port {
		t.Errorf("unparseable env value should fall back to default, got %d", config.HTTP.Port)
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	configJSON := `{
		"database": {"path": "/tmp/file-test.db", "timeout": "10s"},
		"http": {"port": 4000, "host": "127.0.0.1", "read_timeout": "5s", "write_timeout": "5s"},
		"api": {"append_rate_limit": 50}
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(configJSON), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Database.Path != "/tmp/file-test.db" {
		t.Errorf("expected file database path, got %s", config.Database.Path)
	}
	if config.HTTP.Port != 4000 {
		t.Errorf("expected port 4000, got %d", config.HTTP.Port)
	}
	if config.Database.Timeout != 10*time.Second {
		t.Errorf("expected 10s database timeout, got %v", config.Database.Timeout)
	}
	if config.API.AppendRateLimit != 50 {
		t.Errorf("expected rate limit 50, got %d", config.API.AppendRateLimit)
	}
}

func TestConfig_LoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.json"); err == nil {
		t.Error("missing config file should return an error")
	}
}

func TestConfig_LoadConfigWithPrecedence(t *testing.T) {
	t.Setenv("CHATBOARD_HTTP_PORT", "9001")

	// Environment applies when no file is given
	config := LoadConfigWithPrecedence("")
	if config.HTTP.Port != 9001 {
		t.Errorf("expected env port 9001, got %d", config.HTTP.Port)
	}

	// File overrides environment
	configJSON := `{"http": {"port": 9002}}`
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(configJSON), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config = LoadConfigWithPrecedence(path)
	if config.HTTP.Port != 9002 {
		t.Errorf("expected file port 9002, got %d", config.HTTP.Port)
	}

	// Unreadable file falls back to environment/defaults
	config = LoadConfigWithPrecedence("/nonexistent/config.json")
	if config.HTTP.Port != 9001 {
		t.Errorf("expected fallback to env port 9001, got %d", config.HTTP.Port)
	}
}
