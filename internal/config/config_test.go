package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func strPtr(v string) *string {
	return &v
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.BigQuery.ProjectID != nil || cfg.SQL.Driver != nil || cfg.Dashboard.Open != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[bigquery]
project-id = "acme-analytics"
dataset = "copilot"
pull-requests = true

[sql]
driver = "postgres"
dsn = "postgres://localhost/usage"

[dashboard]
output = "out/usage.html"
open = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BigQuery.ProjectID == nil || *cfg.BigQuery.ProjectID != "acme-analytics" {
		t.Fatalf("unexpected project id: %v", cfg.BigQuery.ProjectID)
	}
	if cfg.BigQuery.Location != nil {
		t.Fatalf("expected unset location, got %q", *cfg.BigQuery.Location)
	}
	if cfg.BigQuery.PullRequests == nil || !*cfg.BigQuery.PullRequests {
		t.Fatalf("expected pull-requests = true")
	}
	if cfg.SQL.Driver == nil || *cfg.SQL.Driver != "postgres" {
		t.Fatalf("unexpected driver: %v", cfg.SQL.Driver)
	}
	if cfg.Dashboard.Open == nil || *cfg.Dashboard.Open {
		t.Fatalf("expected open = false")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[bigquery\nproject-id = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestResolveBigQueryEnvWins(t *testing.T) {
	t.Setenv(EnvProjectID, "env-project")
	t.Setenv(EnvDataset, "")
	t.Setenv(EnvLocation, "EU")

	got, err := ResolveBigQuery(BigQueryConfig{
		ProjectID: strPtr("file-project"),
		Dataset:   strPtr("file-dataset"),
		Location:  strPtr("US"),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := BigQuery{ProjectID: "env-project", Dataset: "file-dataset", Location: "EU"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestResolveBigQueryMissing(t *testing.T) {
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvDataset, "")
	t.Setenv(EnvLocation, "")

	_, err := ResolveBigQuery(BigQueryConfig{})
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), EnvProjectID) || !strings.Contains(err.Error(), EnvDataset) {
		t.Fatalf("expected both variables named, got %v", err)
	}

	t.Setenv(EnvProjectID, "p")
	_, err = ResolveBigQuery(BigQueryConfig{})
	if !errors.Is(err, ErrMissing) || strings.Contains(err.Error(), EnvProjectID) {
		t.Fatalf("expected only dataset missing, got %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "pilotmetrics", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "pilotmetrics", "usage.db") {
		t.Fatalf("unexpected db path %s", got)
	}
}
