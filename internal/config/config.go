// Package config loads bookreview settings from a YAML file with
// BOOKREVIEW_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing default file
// is not an error; a missing explicit file is.
const DefaultPath = "bookreview.yaml"

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var (
	backends        = []string{BackendSQLite, BackendRedis, BackendMemory}
	passwordSchemes = []string{"bcrypt", "base64"}
	logLevels       = []string{"debug", "info", "warn", "error"}
	logFormats      = []string{"text", "json"}
)

// Config is the merged result of defaults, file and environment.
type Config struct {
	Backend        string `yaml:"backend"`
	SQLitePath     string `yaml:"sqlitePath"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`
	RedisDB        int    `yaml:"redisDB"`
	Namespace      string `yaml:"namespace"`
	PasswordScheme string `yaml:"passwordScheme"`
	BcryptCost     int    `yaml:"bcryptCost"`
	HTTPAddr       string `yaml:"httpAddr"`
	LogLevel       string `yaml:"logLevel"`
	LogFormat      string `yaml:"logFormat"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Backend:        BackendSQLite,
		SQLitePath:     "data/bookreview.db",
		RedisAddr:      "localhost:6379",
		Namespace:      "bookreview",
		PasswordScheme: "bcrypt",
		BcryptCost:     12,
		HTTPAddr:       ":8080",
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path means DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	textVars := map[string]*string{
		"BOOKREVIEW_BACKEND":         &cfg.Backend,
		"BOOKREVIEW_SQLITE_PATH":     &cfg.SQLitePath,
		"BOOKREVIEW_REDIS_ADDR":      &cfg.RedisAddr,
		"BOOKREVIEW_REDIS_PASSWORD":  &cfg.RedisPassword,
		"BOOKREVIEW_NAMESPACE":       &cfg.Namespace,
		"BOOKREVIEW_PASSWORD_SCHEME": &cfg.PasswordScheme,
		"BOOKREVIEW_HTTP_ADDR":       &cfg.HTTPAddr,
		"BOOKREVIEW_LOG_LEVEL":       &cfg.LogLevel,
		"BOOKREVIEW_LOG_FORMAT":      &cfg.LogFormat,
	}
	for env, dst := range textVars {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"BOOKREVIEW_REDIS_DB":    &cfg.RedisDB,
		"BOOKREVIEW_BCRYPT_COST": &cfg.BcryptCost,
	}
	for env, dst := range intVars {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", env, v)
		}
		*dst = n
	}
	return nil
}

// Validate rejects settings the CLI cannot act on.
func (c Config) Validate() error {
	if !slices.Contains(backends, c.Backend) {
		return fmt.Errorf("backend %q must be one of %s", c.Backend, strings.Join(backends, ", "))
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		return errors.New("sqlitePath is required for the sqlite backend")
	}
	if c.Backend == BackendRedis && c.RedisAddr == "" {
		return errors.New("redisAddr is required for the redis backend")
	}
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if !slices.Contains(passwordSchemes, c.PasswordScheme) {
		return fmt.Errorf("passwordScheme %q must be one of %s", c.PasswordScheme, strings.Join(passwordSchemes, ", "))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("logLevel %q must be one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("logFormat %q must be one of %s", c.LogFormat, strings.Join(logFormats, ", "))
	}
	return nil
}
