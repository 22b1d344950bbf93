// YAML config loader with CUE validation and environment overrides
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportConfig controls where accepted samples are shipped.
type ExportConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Database      string        `yaml:"database"`
	Table         string        `yaml:"table"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	File          string        `yaml:"file"`
}

// Enabled reports whether any export destination is configured.
func (e ExportConfig) Enabled() bool { return e.Endpoint != "" || e.File != "" }

// Config is the root configuration for a watch or replay run.
type Config struct {
	URL                 string        `yaml:"url"`
	RequestHistoryGraph bool          `yaml:"request_history_graph"`
	RecentSamples       int           `yaml:"recent_samples"`
	HealthInterval      time.Duration `yaml:"health_interval"`
	RankingInterval     time.Duration `yaml:"ranking_interval"`
	ReconnectDelay      time.Duration `yaml:"reconnect_delay"`
	ReconnectAttempts   int           `yaml:"reconnect_attempts"`
	AdminAddr           string        `yaml:"admin_addr"`
	LogLevel            string        `yaml:"log_level"`
	LogFile             string        `yaml:"log_file"`
	LogJSON             bool          `yaml:"log_json"`
	Record              string        `yaml:"record"`
	Export              ExportConfig  `yaml:"export"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		URL:                 "ws://localhost:8080",
		RequestHistoryGraph: true,
		RecentSamples:       72,
		HealthInterval:      time.Second,
		RankingInterval:     10 * time.Second,
		ReconnectDelay:      time.Second,
		ReconnectAttempts:   10,
		AdminAddr:           ":8081",
		LogLevel:            "info",
		Export: ExportConfig{
			Database:      "public",
			Table:         "player_counts",
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
	}
}

// Load reads path over the defaults, validating it against the embedded
// CUE schema, then applies environment overrides. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML bytes over the defaults without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode("config.yaml", data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(name string, data []byte, cfg *Config) error {
	if err := Validate(name, data); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MINETRACK_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("MINETRACK_ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv("MINETRACK_RECENT_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MINETRACK_RECENT_SAMPLES: %w", err)
		}
		cfg.RecentSamples = n
	}
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		cfg.Export.Endpoint = v
	}
	if v := os.Getenv("GREPTIMEDB_TABLE"); v != "" {
		cfg.Export.Table = v
	}
	return nil
}

// Check validates values that may have been changed after schema
// validation, by the environment or by flags.
func (c *Config) Check() error {
	if c.URL == "" {
		return fmt.Errorf("config: url is required")
	}
	if c.RecentSamples <= 0 {
		return fmt.Errorf("config: recent_samples must be positive, got %d", c.RecentSamples)
	}
	if c.HealthInterval <= 0 || c.RankingInterval <= 0 {
		return fmt.Errorf("config: tick intervals must be positive")
	}
	if c.Export.BatchSize <= 0 {
		return fmt.Errorf("config: export.batch_size must be positive")
	}
	return nil
}
