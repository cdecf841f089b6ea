// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	BigQuery  BigQueryConfig  `toml:"bigquery"`
	SQL       SQLConfig       `toml:"sql"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

// BigQueryConfig maps the BigQuery upload settings. Environment variables win.
type BigQueryConfig struct {
	ProjectID    *string `toml:"project-id"`
	Dataset      *string `toml:"dataset"`
	Location     *string `toml:"location"`
	PullRequests *bool   `toml:"pull-requests"`
}

// SQLConfig maps the SQL warehouse settings.
type SQLConfig struct {
	Driver       *string `toml:"driver"`
	DSN          *string `toml:"dsn"`
	PullRequests *bool   `toml:"pull-requests"`
}

// DashboardConfig maps the HTML dashboard settings.
type DashboardConfig struct {
	Output *string `toml:"output"`
	Open   *bool   `toml:"open"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
