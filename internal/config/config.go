// Package config loads runtime settings from profile env files and the
// process environment, plus an optional per-configuration override file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied when neither profile nor environment sets a value.
const (
	DefaultProfile     = "default"
	DefaultSearchLimit = 5
	MaxSearchLimit     = 20
)

// Config is the resolved runtime configuration.
type Config struct {
	Profile    string
	ProfileDir string

	// ConfigPath is the root of the 1C configuration export to index.
	ConfigPath string
	// GraphDBPath is the SQLite graph database file.
	GraphDBPath string
	// SearchDBPath is where the external search layer keeps its data.
	SearchDBPath string

	DefaultSearchLimit int
	MaxSearchLimit     int
	// MaxDocumentChars truncates exported search documents; 0 disables.
	MaxDocumentChars int

	LogLevel string
}

// Load resolves the configuration for a profile. The profile's env file
// (projects/<name>/<name>.env under baseDir) is loaded first and
// overrides any already-set process variables; its .env.local overrides
// the profile file in turn. Both files are optional: the process
// environment fills the keys the files leave unset, and built-in
// defaults fill the rest. An empty profileName falls back to
// PROJECT_PROFILE, then to "default".
func Load(baseDir, profileName string) *Config {
	if profileName == "" {
		profileName = getenv("PROJECT_PROFILE", DefaultProfile)
	}
	profileDir := filepath.Join(baseDir, "projects", profileName)

	profileEnv := filepath.Join(profileDir, profileName+".env")
	if err := godotenv.Overload(profileEnv); err != nil {
		slog.Warn("config.profile_missing", "profile", profileName, "path", profileEnv)
	} else {
		slog.Info("config.profile_loaded", "profile", profileName, "path", profileEnv)
	}
	localEnv := filepath.Join(profileDir, profileName+".env.local")
	if err := godotenv.Overload(localEnv); err == nil {
		slog.Info("config.profile_local", "path", localEnv)
	}

	return &Config{
		Profile:            profileName,
		ProfileDir:         profileDir,
		ConfigPath:         getenv("CONFIG_PATH", ""),
		GraphDBPath:        getenv("GRAPHDB_PATH", filepath.Join(profileDir, "graphdb", "graph.db")),
		SearchDBPath:       getenv("VECTORDB_PATH", filepath.Join(profileDir, "vectordb")),
		DefaultSearchLimit: getenvInt("DEFAULT_SEARCH_LIMIT", DefaultSearchLimit),
		MaxSearchLimit:     getenvInt("MAX_SEARCH_LIMIT", MaxSearchLimit),
		MaxDocumentChars:   getenvInt("EMBEDDING_MAX_CHARS", 0),
		LogLevel:           getenv("LOG_LEVEL", "INFO"),
	}
}

// Validate checks that the configuration is usable for an indexing run.
func (c *Config) Validate() error {
	if c.ConfigPath == "" {
		return fmt.Errorf("CONFIG_PATH is not set for profile %q", c.Profile)
	}
	if _, err := os.Stat(c.ConfigPath); err != nil {
		return fmt.Errorf("configuration path does not exist: %s", c.ConfigPath)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level. Unknown
// names resolve to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config.bad_int", "key", key, "value", v)
		return def
	}
	return n
}
