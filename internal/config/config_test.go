package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesMissingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")

	_, err := Load(file)
	if !errors.Is(err, ErrConfigCreated) {
		t.Fatalf("expected ErrConfigCreated, got %v", err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("expected configuration file to be created: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("reading generated configuration: %v", err)
	}
	if cfg.Listen.Port != 12356 {
		t.Errorf("expected default port 12356, got %d", cfg.Listen.Port)
	}
	if cfg.Transcript.CacheTTL != 10*time.Minute {
		t.Errorf("expected transcript cache ttl 10m, got %v", cfg.Transcript.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	data := `{
	"debug_mode": true,
	"listen": {"port": 4000},
	"room": {"idle_timeout": "90s"},
	"transcript": {"backend": "memory", "cache_ttl": "30s"},
	"database": {"operation_timeout": "2s"}
}`
	if err := os.WriteFile(file, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAT_RELAY_SESSION_OUTBOX_SIZE", "8")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"debug_mode", cfg.DebugMode, true},
		{"listen.port", cfg.Listen.Port, 4000},
		{"listen.max_line_length", cfg.Listen.MaxLineLength, 4096},
		{"transcript.backend", cfg.Transcript.Backend, "memory"},
		{"transcript.cache_ttl", cfg.Transcript.CacheTTL, 30 * time.Second},
		{"database.operation_timeout", cfg.Database.OperationTimeout, 2 * time.Second},
		{"session.outbox_size", cfg.Session.OutboxSize, 8},
		{"room.idle_timeout", cfg.Room.IdleTimeout, 90 * time.Second},
		{"room.password_cost", cfg.Room.PasswordCost, 10},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, tt.got)
		}
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(file, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(file); err == nil || errors.Is(err, ErrConfigCreated) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGetConfigCaches(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(file, []byte(`{"app_name": "relay-test"}`), 0644); err != nil {
		t.Fatal(err)
	}
	SetPath(file)
	defer SetPath(DefaultPath)

	first, err := GetConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	second, err := GetConfig()
	if err != nil {
		t.Fatalf("expected cached configuration, got %v", err)
	}
	if first.AppName != "relay-test" || second.AppName != first.AppName {
		t.Errorf("unexpected app names %q / %q", first.AppName, second.AppName)
	}
}
