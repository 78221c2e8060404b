package litepool

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// address the server listens on
	Addr string `yaml:"addr"`

	// number of workers serving connections
	Workers int `yaml:"workers"`

	// directory files are served from
	StaticDir string `yaml:"static_dir"`

	// page sent with every 404, relative to StaticDir
	NotFoundPage string `yaml:"not_found_page"`

	// how long a GET /sleep holds its worker
	SleepDelay time.Duration `yaml:"sleep_delay"`

	// only the first ReadBufferSize bytes of a request are read
	ReadBufferSize int `yaml:"read_buffer_size"`

	// deadline for reading the request, zero disables it
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// how often pool stats are logged, zero disables it
	StatsInterval time.Duration `yaml:"stats_interval"`

	Log       LogConfig       `yaml:"log"`
	AccessLog AccessLogConfig `yaml:"access_log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// when set, logs go to this file and are rotated
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type AccessLogConfig struct {
	// sqlite database the access log is written to, empty disables it
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "localhost:7878",
		Workers:        4,
		StaticDir:      "static",
		NotFoundPage:   "404.html",
		SleepDelay:     5 * time.Second,
		ReadBufferSize: 512,
		ReadTimeout:    30 * time.Second,
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be greater than zero, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.StaticDir == "" {
		return fmt.Errorf("%w: static_dir is required", ErrInvalidConfig)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: read_buffer_size must be greater than zero, got %d", ErrInvalidConfig, c.ReadBufferSize)
	}
	if c.SleepDelay < 0 || c.ReadTimeout < 0 || c.StatsInterval < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
