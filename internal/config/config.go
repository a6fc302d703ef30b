// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package config loads klaskd's configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	HTTP      HTTPConfig      `yaml:"http"`
	GitHub    GitHubConfig    `yaml:"github"`
	GitLab    GitLabConfig    `yaml:"gitlab"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// IndexConfig controls where the full-text index lives on disk.
type IndexConfig struct {
	Directory string `yaml:"directory"`
}

// DatabaseConfig holds the metadata store connection string. Only a
// placeholder is carried: pkg/metadatastore ships an in-memory reference
// implementation and never dials this URL itself.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds the JWT claims-gating secret, expiry window, and the
// key used to encrypt provider access tokens at rest.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
	EncryptionKey string        `yaml:"encryption_key"`
}

// HTTPConfig is listed for completeness per the module boundary: no server
// is built in this repository, cmd/klaskd exposes the same operations as
// CLI subcommands instead.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GitHubConfig holds GitHub-specific configuration.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"` // for GitHub Enterprise
}

// GitLabConfig holds GitLab-specific configuration.
type GitLabConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// SchedulerConfig holds scheduler settings. TickInterval is passed to the
// scheduler; DefaultFrequencyHours and DefaultMaxCrawlMinutes are loaded
// but not applied to repositories, so a repository without its own cron
// expression or frequency is not scheduled and one without its own crawl
// timeout runs without a time limit.
type SchedulerConfig struct {
	TickInterval           time.Duration `yaml:"tick_interval"`
	DefaultFrequencyHours  int           `yaml:"default_frequency_hours"`
	DefaultMaxCrawlMinutes int           `yaml:"default_max_crawl_minutes"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Directory: "./data/index",
		},
		Database: DatabaseConfig{
			URL: "memory://",
		},
		Auth: AuthConfig{
			TokenDuration: 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Scheduler: SchedulerConfig{
			TickInterval:           time.Minute,
			DefaultFrequencyHours:  24,
			DefaultMaxCrawlMinutes: 60,
		},
	}
}

// Load loads configuration from file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDefault loads configuration from default locations, falling back to
// DefaultConfig if none exist.
func LoadDefault() (*Config, error) {
	locations := []string{
		"klask.yaml",
		".klask.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "klask", "config.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	// Both the short deployment names and the KLASK_-prefixed forms are
	// honored; the prefixed form wins when both are set.
	for _, name := range []string{"SEARCH_INDEX_DIR", "KLASK_INDEX_DIR"} {
		if dir := os.Getenv(name); dir != "" {
			c.Index.Directory = dir
		}
	}
	for _, name := range []string{"DATABASE_URL", "KLASK_DATABASE_URL"} {
		if url := os.Getenv(name); url != "" {
			c.Database.URL = url
		}
	}
	for _, name := range []string{"JWT_SECRET", "KLASK_JWT_SECRET"} {
		if secret := os.Getenv(name); secret != "" {
			c.Auth.JWTSecret = secret
		}
	}
	if expires := os.Getenv("JWT_EXPIRES_IN"); expires != "" {
		if d, err := time.ParseDuration(expires); err == nil {
			c.Auth.TokenDuration = d
		}
	}
	if key := os.Getenv("KLASK_ENCRYPTION_KEY"); key != "" {
		c.Auth.EncryptionKey = key
	}
	if host := os.Getenv("HOST"); host != "" {
		c.HTTP.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.HTTP.Port = p
		}
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		c.GitLab.Token = token
	}
}
