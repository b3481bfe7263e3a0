package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	LogPath         string          `yaml:"log_path" mapstructure:"logfile"`
	Interval        int             `yaml:"interval" mapstructure:"interval"`   // seconds between stats reports
	Backlog         int             `yaml:"backlog" mapstructure:"backlog"`     // trailing window in seconds
	Threshold       float64         `yaml:"threshold" mapstructure:"threshold"` // requests per second
	Stride          int             `yaml:"stride" mapstructure:"stride"`
	WatchFileEvents bool            `yaml:"watch_file_events" mapstructure:"watch"`
	DashboardConfig DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
}

// DashboardConfig contains web dashboard settings
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

// LoadConfig loads configuration from a YAML file. Keys missing from the
// file keep their defaults, and a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(path, false)
}

// LoadConfigFile is LoadConfig for a path the user asked for by name: the
// file has to exist.
func LoadConfigFile(path string) (*Config, error) {
	return loadConfig(path, true)
}

func loadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Return default configuration if file doesn't exist
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LogPath:   "", // stdin
		Interval:  10,
		Backlog:   120,
		Threshold: 10.0,
		Stride:    4096,
		DashboardConfig: DashboardConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    8080,
		},
	}
}

// Validate rejects values the monitor cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %d", c.Interval))
	}
	if c.Backlog <= 0 {
		errs = append(errs, fmt.Errorf("backlog must be positive, got %d", c.Backlog))
	}
	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
		errs = append(errs, fmt.Errorf("threshold must be a finite number, got %g", c.Threshold))
	} else if c.Threshold < 0 {
		errs = append(errs, fmt.Errorf("threshold must not be negative, got %g", c.Threshold))
	}
	if c.Stride <= 0 {
		errs = append(errs, fmt.Errorf("stride must be positive, got %d", c.Stride))
	}
	if c.DashboardConfig.Enabled && (c.DashboardConfig.Port <= 0 || c.DashboardConfig.Port > 65535) {
		errs = append(errs, fmt.Errorf("dashboard port out of range: %d", c.DashboardConfig.Port))
	}
	if c.WatchFileEvents && c.LogPath == "" {
		errs = append(errs, errors.New("file event watching needs a log file"))
	}
	return errors.Join(errs...)
}

// ReportInterval returns the stats cadence as a duration
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// DashboardAddr returns the listen address of the dashboard
func (c *Config) DashboardAddr() string {
	return fmt.Sprintf("%s:%d", c.DashboardConfig.Host, c.DashboardConfig.Port)
}
