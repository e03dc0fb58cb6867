package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"truckslot/internal/capacity"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	HTTP struct {
		Address             string `yaml:"address"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	} `yaml:"http"`

	RateLimit struct {
		Enabled           bool `yaml:"enabled"`
		RequestsPerMinute int  `yaml:"requests_per_minute"`
		Burst             int  `yaml:"burst"`
		FailOpen          bool `yaml:"fail_open"`
		// Key clients by X-Forwarded-For. Only safe behind a proxy that sets it.
		TrustForwardedFor bool `yaml:"trust_forwarded_for"`
	} `yaml:"rate_limit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Capacity struct {
		// Tie-break rules applied in order when override priorities are equal.
		TieBreak               []string `yaml:"tie_break"`
		SlotAdjustmentPriority int      `yaml:"slot_adjustment_priority"`
	} `yaml:"capacity"`

	Availability struct {
		MaxDays int `yaml:"max_days"`
	} `yaml:"availability"`

	Terminals struct {
		Path                  string `yaml:"path"`
		ReloadIntervalSeconds int    `yaml:"reload_interval_seconds"`
	} `yaml:"terminals"`
}

const (
	DefaultConfigPath             = "configs/config.yaml"
	DefaultSlotAdjustmentPriority = 1000
	DefaultAvailabilityMaxDays    = 90
)

// Load reads the service config. A .env file next to the working directory is
// loaded first so ${VAR} placeholders can reference it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/truckslot.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeoutSeconds <= 0 {
		c.HTTP.ReadTimeoutSeconds = 10
	}
	if c.HTTP.WriteTimeoutSeconds <= 0 {
		c.HTTP.WriteTimeoutSeconds = 30
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Capacity.SlotAdjustmentPriority == 0 {
		c.Capacity.SlotAdjustmentPriority = DefaultSlotAdjustmentPriority
	}
	if c.Availability.MaxDays <= 0 {
		c.Availability.MaxDays = DefaultAvailabilityMaxDays
	}
	if c.Terminals.Path == "" {
		c.Terminals.Path = DefaultTerminalsPath
	}
	if c.Terminals.ReloadIntervalSeconds <= 0 {
		c.Terminals.ReloadIntervalSeconds = 30
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := capacity.ParseTieBreaks(c.Capacity.TieBreak); err != nil {
		return fmt.Errorf("capacity.tie_break: %w", err)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db cannot be negative")
	}
	for name, port := range map[string]int{
		"monitoring.health_check_port": c.Monitoring.HealthCheckPort,
		"monitoring.prometheus_port":   c.Monitoring.PrometheusPort,
	} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%s: invalid port %d", name, port)
		}
	}
	return nil
}

// TieBreaks returns the parsed tie-break order.
func (c *Config) TieBreaks() []capacity.TieBreak {
	tb, err := capacity.ParseTieBreaks(c.Capacity.TieBreak)
	if err != nil {
		return capacity.DefaultTieBreaks
	}
	return tb
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) BackupRetention() time.Duration {
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}

func (c *Config) TerminalsReloadInterval() time.Duration {
	return time.Duration(c.Terminals.ReloadIntervalSeconds) * time.Second
}
