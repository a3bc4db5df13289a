package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of the optional config file. Durations
// are strings in time.ParseDuration form ("30s", "24h").
type fileConfig struct {
	Addr               string  `yaml:"addr"`
	LogLevel           string  `yaml:"logLevel"`
	MaxConcurrentTasks int     `yaml:"maxConcurrentTasks"`
	MaxQueueSize       int     `yaml:"maxQueueSize"`
	DefaultTimeout     string  `yaml:"defaultTimeout"`
	DefaultRetryDelay  string  `yaml:"defaultRetryDelay"`
	MaxRetryDelay      string  `yaml:"maxRetryDelay"`
	RetryBackoffFactor float64 `yaml:"retryBackoffFactor"`
	CleanupInterval    string  `yaml:"cleanupInterval"`
	RetentionPeriod    string  `yaml:"retentionPeriod"`
	MaxTaskHistory     int     `yaml:"maxTaskHistory"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &fileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	if len(value) == 0 {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d, nil
}
