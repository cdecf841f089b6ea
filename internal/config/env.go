package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variables for the BigQuery upload.
const (
	EnvProjectID = "GCP_PROJECT_ID"
	EnvDataset   = "BQ_DATASET"
	EnvLocation  = "BQ_LOCATION"
)

// ErrMissing is returned when required settings are absent.
var ErrMissing = errors.New("missing configuration")

// BigQuery holds the resolved upload target.
type BigQuery struct {
	ProjectID string
	Dataset   string
	Location  string
}

// ResolveBigQuery overlays the environment on the file settings. Project and
// dataset are required; location may stay empty.
func ResolveBigQuery(file BigQueryConfig) (BigQuery, error) {
	resolved := BigQuery{
		ProjectID: getEnv(EnvProjectID, deref(file.ProjectID)),
		Dataset:   getEnv(EnvDataset, deref(file.Dataset)),
		Location:  getEnv(EnvLocation, deref(file.Location)),
	}
	var missing []string
	if resolved.ProjectID == "" {
		missing = append(missing, EnvProjectID)
	}
	if resolved.Dataset == "" {
		missing = append(missing, EnvDataset)
	}
	if len(missing) > 0 {
		return BigQuery{}, fmt.Errorf("%w: %s must be set", ErrMissing, strings.Join(missing, " and "))
	}
	return resolved, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(fallback)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
