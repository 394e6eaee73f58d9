// Package config loads galaxysim settings from YAML with IDLEGALAXY_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full host configuration.
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Storage    Storage    `yaml:"storage"`
	Backup     Backup     `yaml:"backup"`
	API        API        `yaml:"api"`
	Log        Log        `yaml:"log"`
	Catalog    Catalog    `yaml:"catalog"`
}

// Simulation controls the scheduler. The tick and autosave periods normally
// come from the saved game; a non-zero value here overrides them for this host.
type Simulation struct {
	TickInterval      time.Duration `yaml:"tick_interval"`     // 0 = saved setting
	AutoSaveInterval  time.Duration `yaml:"autosave_interval"` // 0 = saved setting
	OfflineThreshold  time.Duration `yaml:"offline_threshold"`
	OfflineChunkHours float64       `yaml:"offline_chunk_hours"`
	MaxOffline        time.Duration `yaml:"max_offline"` // 0 = unlimited
}

// Storage selects the save backend.
type Storage struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Slot   string `yaml:"slot"`
}

// Backup configures optional S3 snapshot copies.
type Backup struct {
	Enabled         bool          `yaml:"enabled"`
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	Prefix          string        `yaml:"prefix"`
	PathStyle       bool          `yaml:"path_style"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Interval        time.Duration `yaml:"interval"`
}

// API configures the HTTP API.
type API struct {
	Enabled  bool   `yaml:"enabled"`
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"admin_key"` // empty disables build and demolish
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Catalog optionally overrides built-in definitions.
type Catalog struct {
	Path string `yaml:"path"`
}

// Default returns a configuration that runs a local SQLite game.
func Default() Config {
	return Config{
		Simulation: Simulation{
			OfflineThreshold:  time.Minute,
			OfflineChunkHours: 0.1,
		},
		Storage: Storage{Driver: "sqlite", Path: "data/galaxy.db", Slot: "default"},
		Backup:  Backup{Region: "us-east-1", Prefix: "idle-galaxy", Interval: 10 * time.Minute},
		API:     API{Enabled: true, Port: 8080},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"IDLEGALAXY_TICK_INTERVAL", &c.Simulation.TickInterval},
		{"IDLEGALAXY_AUTOSAVE_INTERVAL", &c.Simulation.AutoSaveInterval},
		{"IDLEGALAXY_MAX_OFFLINE", &c.Simulation.MaxOffline},
		{"IDLEGALAXY_BACKUP_INTERVAL", &c.Backup.Interval},
	} {
		if v := os.Getenv(d.key); v != "" {
			dur, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = dur
		}
	}

	for _, s := range []struct {
		key string
		dst *string
	}{
		{"IDLEGALAXY_STORAGE_DRIVER", &c.Storage.Driver},
		{"IDLEGALAXY_DB_PATH", &c.Storage.Path},
		{"IDLEGALAXY_PG_DSN", &c.Storage.DSN},
		{"IDLEGALAXY_SAVE_SLOT", &c.Storage.Slot},
		{"IDLEGALAXY_S3_BUCKET", &c.Backup.Bucket},
		{"IDLEGALAXY_S3_REGION", &c.Backup.Region},
		{"IDLEGALAXY_S3_ENDPOINT", &c.Backup.Endpoint},
		{"IDLEGALAXY_S3_PREFIX", &c.Backup.Prefix},
		{"IDLEGALAXY_LOG_LEVEL", &c.Log.Level},
		{"IDLEGALAXY_LOG_FORMAT", &c.Log.Format},
		{"IDLEGALAXY_CATALOG", &c.Catalog.Path},
		{"IDLEGALAXY_ADMIN_KEY", &c.API.AdminKey},
	} {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}
	if os.Getenv("IDLEGALAXY_S3_BUCKET") != "" {
		c.Backup.Enabled = true
	}
	if strings.EqualFold(os.Getenv("IDLEGALAXY_S3_PATH_STYLE"), "true") {
		c.Backup.PathStyle = true
	}

	if v := os.Getenv("IDLEGALAXY_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IDLEGALAXY_API_PORT: %w", err)
		}
		c.API.Port = port
	}
	return nil
}

// Validate rejects settings the host cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Simulation.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_interval must not be negative, got %s", c.Simulation.TickInterval))
	}
	if c.Simulation.AutoSaveInterval < 0 {
		errs = append(errs, fmt.Errorf("simulation.autosave_interval must not be negative"))
	}
	if c.Simulation.OfflineChunkHours <= 0 {
		errs = append(errs, fmt.Errorf("simulation.offline_chunk_hours must be positive"))
	}
	if c.Simulation.MaxOffline < 0 {
		errs = append(errs, fmt.Errorf("simulation.max_offline must not be negative"))
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for sqlite"))
		}
	case "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not sqlite or postgres", c.Storage.Driver))
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		errs = append(errs, fmt.Errorf("backup.bucket is required when backup is enabled"))
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses the configured level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Handler builds the slog handler described by l, writing to w.
func (l Log) Handler(w io.Writer) slog.Handler {
	lvl, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
