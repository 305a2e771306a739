// Package config assembles the process configuration for the tutoring
// CLI. Values layer in order: defaults, then a .env file if present,
// then real environment variables. The resulting Config is passed
// explicitly into constructors so tests can run isolated tracks with
// their own settings.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/store"
	"github.com/astramentor/astra/internal/tutor"
)

// Config is the full process configuration. Model provider selection
// lives in the llm package (llm.NewProviderFromEnv) since it follows
// its own key-discovery order.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// SnapshotRetention bounds how many track snapshots are kept.
	SnapshotRetention int

	Scoring scoring.Config
	Tutor   tutor.Config
}

// Default returns the built-in defaults.
func Default() Config {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = "astra.db"
	}
	return Config{
		DBPath:            dbPath,
		SnapshotRetention: 20,
		Scoring:           scoring.DefaultConfig(),
		Tutor:             tutor.DefaultConfig(),
	}
}

// Load builds the configuration: defaults, then .env, then the
// environment. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("ASTRA_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ASTRA_SNAPSHOT_RETENTION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("ASTRA_SNAPSHOT_RETENTION: invalid value %q", v)
		}
		cfg.SnapshotRetention = n
	}
	if v := os.Getenv("ASTRA_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("ASTRA_MAX_ATTEMPTS: invalid value %q", v)
		}
		cfg.Tutor.MaxAttemptsPerNode = n
	}
	if v := os.Getenv("ASTRA_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return Config{}, fmt.Errorf("ASTRA_TEMPERATURE: invalid value %q", v)
		}
		cfg.Tutor.Temperature = f
	}

	return cfg, nil
}

// Validate checks the configuration is usable for a live session.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}
	return nil
}
