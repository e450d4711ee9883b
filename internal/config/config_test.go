package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROLLAWAY_ADDR", "")
	t.Setenv("ROLLAWAY_ALLOWED_ORIGINS", "")
	t.Setenv("ROLLAWAY_MAX_PAYLOAD_BYTES", "")
	t.Setenv("ROLLAWAY_PING_INTERVAL", "")
	t.Setenv("ROLLAWAY_MAX_CLIENTS", "")
	t.Setenv("ROLLAWAY_TICK_RATE", "")
	t.Setenv("ROLLAWAY_SEED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Address != DefaultAddr {
		t.Fatalf("expected default addr %q, got %q", DefaultAddr, cfg.Address)
	}
	if cfg.AllowedOrigins != nil {
		t.Fatalf("expected no allowed origins, got %#v", cfg.AllowedOrigins)
	}
	if cfg.MaxPayloadBytes != DefaultMaxPayloadBytes {
		t.Fatalf("expected default max payload %d, got %d", DefaultMaxPayloadBytes, cfg.MaxPayloadBytes)
	}
	if cfg.TickRate != DefaultTickRate {
		t.Fatalf("expected default tick rate %v, got %v", DefaultTickRate, cfg.TickRate)
	}
	if cfg.Seed != 0 {
		t.Fatalf("expected zero seed to signal time-derived seeding, got %d", cfg.Seed)
	}
	if cfg.DebounceInterval != DefaultDebounceInterval {
		t.Fatalf("expected default debounce %v, got %v", DefaultDebounceInterval, cfg.DebounceInterval)
	}
	if cfg.ReplayDir != DefaultReplayDir || cfg.ReplayKeep != DefaultReplayKeep {
		t.Fatalf("unexpected replay defaults dir=%q keep=%d", cfg.ReplayDir, cfg.ReplayKeep)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROLLAWAY_ADDR", "127.0.0.1:9000")
	t.Setenv("ROLLAWAY_ALLOWED_ORIGINS", "https://example.com, https://demo.local")
	t.Setenv("ROLLAWAY_MAX_PAYLOAD_BYTES", "2048")
	t.Setenv("ROLLAWAY_PING_INTERVAL", "45s")
	t.Setenv("ROLLAWAY_MAX_CLIENTS", "12")
	t.Setenv("ROLLAWAY_TICK_RATE", "120")
	t.Setenv("ROLLAWAY_SEED", "-42")
	t.Setenv("ROLLAWAY_REPLAY_ENABLED", "true")
	t.Setenv("ROLLAWAY_REPLAY_DIR", "/tmp/replays")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("unexpected address: %q", cfg.Address)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://example.com" || cfg.AllowedOrigins[1] != "https://demo.local" {
		t.Fatalf("unexpected allowed origins: %#v", cfg.AllowedOrigins)
	}
	if cfg.MaxPayloadBytes != 2048 {
		t.Fatalf("expected overridden max payload, got %d", cfg.MaxPayloadBytes)
	}
	if cfg.PingInterval.String() != "45s" {
		t.Fatalf("expected ping interval 45s, got %v", cfg.PingInterval)
	}
	if cfg.MaxClients != 12 {
		t.Fatalf("expected max clients 12, got %d", cfg.MaxClients)
	}
	if cfg.TickRate != 120 {
		t.Fatalf("expected tick rate 120, got %v", cfg.TickRate)
	}
	if cfg.Seed != -42 {
		t.Fatalf("expected seed -42, got %d", cfg.Seed)
	}
	if !cfg.ReplayEnabled || cfg.ReplayDir != "/tmp/replays" {
		t.Fatalf("unexpected replay settings enabled=%v dir=%q", cfg.ReplayEnabled, cfg.ReplayDir)
	}
}

func TestLoadReturnsValidationErrors(t *testing.T) {
	t.Setenv("ROLLAWAY_MAX_PAYLOAD_BYTES", "-5")
	t.Setenv("ROLLAWAY_PING_INTERVAL", "abc")
	t.Setenv("ROLLAWAY_MAX_CLIENTS", "-1")
	t.Setenv("ROLLAWAY_TICK_RATE", "0")
	t.Setenv("ROLLAWAY_SEED", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error from invalid configuration, got nil")
	}

	for _, want := range []string{
		"ROLLAWAY_MAX_PAYLOAD_BYTES",
		"ROLLAWAY_PING_INTERVAL",
		"ROLLAWAY_MAX_CLIENTS",
		"ROLLAWAY_TICK_RATE",
		"ROLLAWAY_SEED",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %s, got %q", want, err.Error())
		}
	}
}

func TestLoadIgnoresEmptyAllowedOrigins(t *testing.T) {
	t.Setenv("ROLLAWAY_ALLOWED_ORIGINS", " , ,https://ok.example, ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://ok.example" {
		t.Fatalf("expected single cleaned origin, got %#v", cfg.AllowedOrigins)
	}
}

func TestLoadAllowsUnlimitedClients(t *testing.T) {
	t.Setenv("ROLLAWAY_MAX_CLIENTS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.MaxClients != 0 {
		t.Fatalf("expected zero to disable limit, got %d", cfg.MaxClients)
	}
}

func TestLoadBooleanParsing(t *testing.T) {
	t.Setenv("ROLLAWAY_REPLAY_ENABLED", "yes-please")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ROLLAWAY_REPLAY_ENABLED") {
		t.Fatalf("expected boolean validation error, got %v", err)
	}
}
