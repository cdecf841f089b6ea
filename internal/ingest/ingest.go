// Package ingest reads a telemetry document from a file or stdin and validates it.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/verte-zerg/pilotmetrics/internal/schema"
)

// StdinPath selects standard input instead of a file.
const StdinPath = "-"

// ErrNotFound is returned when the input file does not exist.
var ErrNotFound = errors.New("input not found")

// Load reads path (or stdin when path is "-") and returns the validated daily records.
func Load(path string, stdin io.Reader) ([]schema.DailyRecord, error) {
	if path == "" || path == StdinPath {
		return schema.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file '%s' not found", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return schema.Parse(f)
}
