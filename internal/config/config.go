package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/joeandaverde/airtable/httptransport"
)

// EnvAPIKey overrides api_key when set.
const EnvAPIKey = "AIRTABLE_KEY"

// Config is the client configuration file.
type Config struct {
	Endpoint          string        `yaml:"endpoint"`
	APIKey            string        `yaml:"api_key"`
	Base              string        `yaml:"base"`
	Table             string        `yaml:"table"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	LogLevel          logrus.Level  `yaml:"log_level"`

	Mock MockConfig `yaml:"mock"`
}

// MockConfig configures the local mock store.
type MockConfig struct {
	Addr              string  `yaml:"addr"`
	DataDir           string  `yaml:"data_directory"`
	APIKey            string  `yaml:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	PageSize          int     `yaml:"page_size"`
}

// Default returns the configuration used for keys missing from a file.
func Default() *Config {
	return &Config{
		Endpoint:          httptransport.DefaultEndpoint,
		Timeout:           httptransport.DefaultTimeout,
		RequestsPerSecond: 5,
		Burst:             1,
		LogLevel:          logrus.InfoLevel,
		Mock: MockConfig{
			Addr:     "127.0.0.1:8089",
			PageSize: 100,
		},
	}
}

// Load reads a YAML config file and applies the environment override.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a YAML config and applies the environment override.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.APIKey = key
	}

	return cfg, nil
}

// Validate checks the settings a client needs.
func (c *Config) Validate() error {
	if c.Base == "" {
		return errors.New("config: base is required")
	}
	if c.Table == "" {
		return errors.New("config: table is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("config: api_key is required (or set %s)", EnvAPIKey)
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("config: requests_per_second must not be negative")
	}
	return nil
}

// Transport returns the HTTP transport settings.
func (c *Config) Transport() httptransport.Config {
	return httptransport.Config{
		Endpoint:          c.Endpoint,
		APIKey:            c.APIKey,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}
