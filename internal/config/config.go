// Package config loads listwatch configuration from a YAML file and fills
// in defaults. Every command takes the same file; each uses the sections it
// needs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level listwatch configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Database DatabaseConfig `yaml:"database"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Server   ServerConfig   `yaml:"server"`
	SMTP     SMTPConfig     `yaml:"smtp"`
}

// SourceConfig locates the published list.
type SourceConfig struct {
	PageURL   string        `yaml:"page_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MonitorConfig tunes run behavior.
type MonitorConfig struct {
	// RecordFailedChecks advances last_checked even when a run failed
	// before commit. Defaults to true so "when did we last look" stays
	// honest about failed attempts.
	RecordFailedChecks *bool `yaml:"record_failed_checks"`
}

// ServerConfig tunes the read-only HTTP API.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	PageSize    int    `yaml:"page_size"`
	SearchLimit int    `yaml:"search_limit"`
	MinQueryLen int    `yaml:"min_query_len"`
}

// SMTPConfig configures change notifications. Leave empty to disable mail.
type SMTPConfig struct {
	Host      string   `yaml:"host"`
	Port      int      `yaml:"port"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	From      string   `yaml:"from"`
	To        []string `yaml:"to"`
	SourceURL string   `yaml:"source_url"`
}

const defaultPageURL = "https://www.gov.pl/web/mswia/lista-osob-i-podmiotow-objetych-sankcjami"

// Load reads a YAML configuration file, applies defaults, and validates it.
// An empty path returns the pure-defaults configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.PageURL == "" {
		c.Source.PageURL = defaultPageURL
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = 60 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = "listwatch.db"
	}
	if c.Monitor.RecordFailedChecks == nil {
		v := true
		c.Monitor.RecordFailedChecks = &v
	}
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8612"
	}
	if c.Server.PageSize <= 0 {
		c.Server.PageSize = 100
	}
	if c.Server.SearchLimit <= 0 {
		c.Server.SearchLimit = 200
	}
	if c.Server.MinQueryLen <= 0 {
		c.Server.MinQueryLen = 2
	}
	if c.SMTP.Port <= 0 {
		c.SMTP.Port = 587
	}
}

func (c *Config) validate() error {
	if c.SMTP.Host != "" {
		if c.SMTP.Username == "" || c.SMTP.Password == "" {
			return fmt.Errorf("smtp: host set but username or password missing")
		}
		if len(c.SMTP.To) == 0 {
			return fmt.Errorf("smtp: host set but no recipients")
		}
	}
	return nil
}
