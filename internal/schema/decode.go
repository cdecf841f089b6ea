package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decode reads exactly one JSON value from r. Numbers are kept as json.Number
// so integer checks stay exact.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrMalformed)
	}
	return v, nil
}

// Parse decodes r and validates the result.
func Parse(r io.Reader) ([]DailyRecord, error) {
	v, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Validate(v)
}
