// Package config resolves process settings from a .env file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const envPrefix = "STRATA_"

// Config holds every setting shared by the CLI and the server.
type Config struct {
	Model         string
	Store         string
	FileDir       string
	SQLitePath    string
	Redis         RedisConfig
	EncryptionKey string
	RedactFields  []string
	LogLevel      string
	LogFormat     string
	Port          string
}

// RedisConfig locates the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Store:      "memory",
		FileDir:    ".strata/fixed",
		SQLitePath: "strata.db",
		Redis:      RedisConfig{Addr: "localhost:6379", Prefix: "strata:fixed:"},
		LogLevel:   "info",
		LogFormat:  "text",
		Port:       "8080",
	}
}

// Load reads the given .env files (".env" when none are given), ignoring
// missing ones, and applies STRATA_* variables on top of the defaults.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Model, "MODEL")
	setString(&c.Store, "STORE")
	setString(&c.FileDir, "FILE_DIR")
	setString(&c.SQLitePath, "SQLITE_PATH")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Redis.Prefix, "REDIS_PREFIX")
	setString(&c.EncryptionKey, "ENCRYPTION_KEY")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.Port, "PORT")

	if v := env("REDACT_FIELDS"); v != "" {
		c.RedactFields = splitList(v)
	}
	if v := env("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_DB %q: %w", envPrefix, v, err)
		}
		c.Redis.DB = db
	}
	return nil
}

// ApplyFlags overrides settings with the flags explicitly set on cmd.
// Flags that cmd does not define are ignored.
func (c *Config) ApplyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	str := func(dst *string, name string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str(&c.Model, "model")
	str(&c.Store, "store")
	str(&c.FileDir, "file-dir")
	str(&c.SQLitePath, "sqlite-path")
	str(&c.Redis.Addr, "redis-addr")
	str(&c.LogLevel, "log-level")
	str(&c.LogFormat, "log-format")
	str(&c.Port, "port")
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store {
	case "memory", "file", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store)
	}
	for _, p := range c.RedactFields {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
	}
	if c.Port != "" {
		if _, err := strconv.Atoi(strings.TrimPrefix(c.Port, ":")); err != nil {
			return fmt.Errorf("invalid port %q", c.Port)
		}
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func setString(dst *string, name string) {
	if v := env(name); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
