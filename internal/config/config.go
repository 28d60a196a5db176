// Package config loads application configuration from environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be
// rejected outright.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinSessionSecretLength is the minimum required length for the session
// secret. AES-256 requires 32 bytes minimum.
const MinSessionSecretLength = 32

// Config holds the application configuration loaded from environment
// variables.
type Config struct {
	DBPath        string `env:"QUILL_DB_PATH" envDefault:"./data/quill.db"`
	SessionSecret string `env:"QUILL_SESSION_SECRET,required"`
	ServerHost    string `env:"QUILL_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"QUILL_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"QUILL_ENV" envDefault:"development"`
	LogLevel      string `env:"QUILL_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"QUILL_UPLOADS_DIR" envDefault:"./uploads"`

	// EventRetentionDays controls how long audit log entries are kept
	// before the maintenance job prunes them.
	EventRetentionDays int `env:"QUILL_EVENT_RETENTION_DAYS" envDefault:"90"`

	// DoSeed enables demo content seeding on startup.
	DoSeed bool `env:"QUILL_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in
// development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("QUILL_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("QUILL_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("QUILL_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character
// classes (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
