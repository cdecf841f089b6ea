package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/pilotmetrics/internal/schema"
)

const minimal = `[{"date": "2024-01-15", "total_active_users": 3, "total_engaged_users": 2}]`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	days, err := Load(path, strings.NewReader("ignored"))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-15", days[0].Date)
}

func TestLoadStdin(t *testing.T) {
	for _, path := range []string{"-", ""} {
		days, err := Load(path, strings.NewReader(minimal))
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Equal(t, int64(3), days[0].TotalActiveUsers)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{not json`), 0o644))
	badShape := filepath.Join(dir, "shape.json")
	require.NoError(t, os.WriteFile(badShape, []byte(`[{"total_active_users": 1}]`), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.json"), wantErr: ErrNotFound},
		{name: "malformed", path: badJSON, wantErr: schema.ErrMalformed},
		{name: "violation", path: badShape, wantErr: schema.ErrViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, strings.NewReader(""))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadMissingFileMessage(t *testing.T) {
	_, err := Load("nope.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file 'nope.json' not found")
}
