// Package config loads all server tunables from environment variables with
// typed defaults and descriptive validation errors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddr is the default TCP address the server listens on.
	DefaultAddr = ":42110"
	// DefaultTickRate is the fixed simulation frequency in Hz.
	DefaultTickRate = 60.0
	// DefaultPingInterval controls the WebSocket keepalive cadence.
	DefaultPingInterval = 30 * time.Second
	// DefaultMaxPayloadBytes limits inbound WebSocket frame size.
	DefaultMaxPayloadBytes int64 = 1 << 16
	// DefaultMaxClients bounds concurrent viewer connections. Zero disables the limit.
	DefaultMaxClients = 64
	// DefaultDebounceInterval is the per-key repeat suppression threshold.
	DefaultDebounceInterval = 150 * time.Millisecond

	// DefaultReplayDir is where replay bundles are written.
	DefaultReplayDir = "replays"
	// DefaultReplayKeep bounds how many replay bundles are retained on disk.
	DefaultReplayKeep = 20
	// DefaultReplayDumpWindow bounds how frequently replay dumps may be requested.
	DefaultReplayDumpWindow = time.Minute
	// DefaultReplayDumpBurst sets how many dump requests fit in one window.
	DefaultReplayDumpBurst = 1

	// DefaultLogLevel controls server log verbosity.
	DefaultLogLevel = "info"
	// DefaultLogMaxSizeMB caps a single log file before rotation.
	DefaultLogMaxSizeMB = 50
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAgeDays expires rotated log files by age.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression of rotated log files.
	DefaultLogCompress = true
)

// LoggingConfig captures structured logging options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config captures all runtime tunables for the game server.
type Config struct {
	Address         string
	AllowedOrigins  []string
	MaxPayloadBytes int64
	PingInterval    time.Duration
	MaxClients      int
	AdminToken      string

	TickRate         float64
	Seed             int64
	DebounceInterval time.Duration

	ReplayEnabled    bool
	ReplayDir        string
	ReplayKeep       int
	ReplayDumpWindow time.Duration
	ReplayDumpBurst  int

	Logging LoggingConfig
}

// Load reads the configuration from ROLLAWAY_* environment variables,
// applying defaults and collecting every invalid override into one error.
func Load() (*Config, error) {
	cfg := &Config{
		Address:          getString("ROLLAWAY_ADDR", DefaultAddr),
		AllowedOrigins:   parseList(os.Getenv("ROLLAWAY_ALLOWED_ORIGINS")),
		MaxPayloadBytes:  DefaultMaxPayloadBytes,
		PingInterval:     DefaultPingInterval,
		MaxClients:       DefaultMaxClients,
		AdminToken:       strings.TrimSpace(os.Getenv("ROLLAWAY_ADMIN_TOKEN")),
		TickRate:         DefaultTickRate,
		DebounceInterval: DefaultDebounceInterval,
		ReplayDir:        getString("ROLLAWAY_REPLAY_DIR", DefaultReplayDir),
		ReplayKeep:       DefaultReplayKeep,
		ReplayDumpWindow: DefaultReplayDumpWindow,
		ReplayDumpBurst:  DefaultReplayDumpBurst,
		Logging: LoggingConfig{
			Level:      getString("ROLLAWAY_LOG_LEVEL", DefaultLogLevel),
			Path:       strings.TrimSpace(os.Getenv("ROLLAWAY_LOG_PATH")),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_MAX_PAYLOAD_BYTES")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_MAX_PAYLOAD_BYTES must be a positive integer, got %q", raw))
		} else {
			cfg.MaxPayloadBytes = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_PING_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_MAX_CLIENTS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_MAX_CLIENTS must be a non-negative integer, got %q", raw))
		} else {
			cfg.MaxClients = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_TICK_RATE")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 || value > 1000 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_TICK_RATE must be a rate between 0 and 1000 Hz, got %q", raw))
		} else {
			cfg.TickRate = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_SEED")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_SEED must be an integer, got %q", raw))
		} else {
			cfg.Seed = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_DEBOUNCE_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration < 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_DEBOUNCE_INTERVAL must be a non-negative duration, got %q", raw))
		} else {
			cfg.DebounceInterval = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_REPLAY_ENABLED")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_REPLAY_ENABLED must be a boolean value, got %q", raw))
		} else {
			cfg.ReplayEnabled = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_REPLAY_KEEP")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_REPLAY_KEEP must be a non-negative integer, got %q", raw))
		} else {
			cfg.ReplayKeep = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_REPLAY_DUMP_WINDOW")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_REPLAY_DUMP_WINDOW must be a positive duration, got %q", raw))
		} else {
			cfg.ReplayDumpWindow = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_REPLAY_DUMP_BURST")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_REPLAY_DUMP_BURST must be a positive integer, got %q", raw))
		} else {
			cfg.ReplayDumpBurst = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_LOG_MAX_AGE_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_LOG_MAX_AGE_DAYS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxAgeDays = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ROLLAWAY_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ROLLAWAY_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			values = append(values, item)
		}
	}
	return values
}
