// Package config loads global settings and per-repository configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// EnvPrefix prefixes every environment override, e.g. BUGLOC_CACHE_BACKEND.
const EnvPrefix = "BUGLOC"

// Config holds global configuration
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Index   IndexConfig   `mapstructure:"index" yaml:"index"`
	Scoring ScoringConfig `mapstructure:"scoring" yaml:"scoring"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"` // file|redis|sqlite
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	RedisURL      string        `mapstructure:"redis_url" yaml:"redis_url"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl" yaml:"redis_ttl"`
	SQLitePath    string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MemoryEntries int           `mapstructure:"memory_entries" yaml:"memory_entries"`
}

type IndexConfig struct {
	MemoEntries int `mapstructure:"memo_entries" yaml:"memo_entries"`
}

type ScoringConfig struct {
	DocumentThreshold float64 `mapstructure:"document_threshold" yaml:"document_threshold"`
	TermThreshold     float64 `mapstructure:"term_threshold" yaml:"term_threshold"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // error|warn|info|debug
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// DefaultDir returns the directory holding the global config, the file
// cache and the metrics log.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bugloc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bugloc"
	}
	return filepath.Join(home, ".config", "bugloc")
}

// DefaultPath returns the path of the global config file.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		Cache: CacheConfig{
			Backend:       BackendFile,
			Dir:           filepath.Join(dir, "cache"),
			RedisURL:      "redis://localhost:6379",
			SQLitePath:    filepath.Join(dir, "cache.db"),
			MemoryEntries: 4,
		},
		Index: IndexConfig{
			MemoEntries: 8192,
		},
		Scoring: ScoringConfig{
			DocumentThreshold: 0.1,
			TermThreshold:     0.05,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "metrics.jsonl"),
		},
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"cache-backend":      "cache.backend",
	"cache-dir":          "cache.dir",
	"redis-url":          "cache.redis_url",
	"sqlite-path":        "cache.sqlite_path",
	"document-threshold": "scoring.document_threshold",
	"term-threshold":     "scoring.term_threshold",
	"log-level":          "logging.level",
	"metrics-path":       "metrics.path",
}

// Load reads the config file at path (missing is fine), then applies
// BUGLOC_* environment variables, then any flags in flags that were set.
// Priority: flags > environment > file > defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.redis_ttl", d.Cache.RedisTTL)
	v.SetDefault("cache.sqlite_path", d.Cache.SQLitePath)
	v.SetDefault("cache.memory_entries", d.Cache.MemoryEntries)
	v.SetDefault("index.memo_entries", d.Index.MemoEntries)
	v.SetDefault("scoring.document_threshold", d.Scoring.DocumentThreshold)
	v.SetDefault("scoring.term_threshold", d.Scoring.TermThreshold)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range flagKeys {
			if f := flags.Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q (want file, redis or sqlite)", c.Cache.Backend)
	}
	if c.Scoring.DocumentThreshold < 0 || c.Scoring.DocumentThreshold > 1 {
		return fmt.Errorf("scoring.document_threshold %v out of range [0, 1]", c.Scoring.DocumentThreshold)
	}
	if c.Scoring.TermThreshold < 0 {
		return fmt.Errorf("scoring.term_threshold %v must not be negative", c.Scoring.TermThreshold)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Save writes c as YAML to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseLevel converts a configured level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// RepoConfigFile is the per-repository config file name.
const RepoConfigFile = ".bugloc.yaml"

// RepoConfig holds per-repository configuration
type RepoConfig struct {
	Name    string   `yaml:"name"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	// Commits are indexed when none are given on the command line.
	Commits []string `yaml:"commits,omitempty"`
}

// LoadRepoConfig loads .bugloc.yaml from the repo root. A repository without
// one gets an empty config named after its directory.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	path := filepath.Join(repoPath, RepoConfigFile)

	cfg := &RepoConfig{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if cfg.Name == "" {
		if abs, err := filepath.Abs(repoPath); err == nil {
			cfg.Name = filepath.Base(abs)
		}
	}
	return cfg, nil
}

// SaveRepoConfig writes cfg to .bugloc.yaml in the repo root.
func SaveRepoConfig(repoPath string, cfg *RepoConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(repoPath, RepoConfigFile), data, 0644)
}
