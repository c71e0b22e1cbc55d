// Package config loads app settings from an optional YAML file,
// ULTIFLOW_* environment variables, and command-line flags, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "ULTIFLOW_"

// Config holds everything the app binary needs to start.
type Config struct {
	Listen    string `koanf:"listen" validate:"required"`
	DBPath    string `koanf:"db" validate:"required"`
	Import    string `koanf:"import"`
	ImportGit string `koanf:"import-git" validate:"omitempty,url"`
	CacheDir  string `koanf:"cache" validate:"required"`
	SyncURL   string `koanf:"sync-url" validate:"omitempty,url"`
	SyncEmail string `koanf:"sync-email" validate:"omitempty,email"`
}

// Flags defines the command-line flags that feed into Load. Call before
// pflag parsing.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to an optional ultiflow.yml config file")
	fs.String("listen", ":8484", "HTTP listen address")
	fs.String("db", "ultiflow.db", "Path to the SQLite database file")
	fs.String("import", "", "Directory of markdown decks to import at startup")
	fs.String("import-git", "", "Git URL of a deck repository to mirror and import at startup")
	fs.String("cache", "decks-cache", "Cache directory for mirrored deck repositories")
	fs.String("sync-url", "", "Base URL of the sync service (empty disables sync)")
	fs.String("sync-email", "", "Email key for the sync service")
}

// Load merges file, environment and flag settings and validates the
// result. Flag defaults apply only where nothing else set a value.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.SyncURL != "" && cfg.SyncEmail == "" {
		return nil, fmt.Errorf("invalid configuration: sync-url is set but sync-email is empty")
	}
	return &cfg, nil
}

// Lookup returns an environment value, for the rare settings read outside
// Load (the sync server's database URL).
func Lookup(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
