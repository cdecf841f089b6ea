package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks input that is not a single syntactically valid JSON value.
	ErrMalformed = errors.New("malformed JSON")
	// ErrViolation marks valid JSON that does not match the daily record schema.
	ErrViolation = errors.New("schema violation")
)

// Violation describes the first field that failed validation.
type Violation struct {
	Path     string
	Expected string
	Got      string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("schema violation at %s: expected %s, got %s", v.Path, v.Expected, v.Got)
}

// Is makes errors.Is(err, ErrViolation) match any *Violation.
func (v *Violation) Is(target error) bool {
	return target == ErrViolation
}

func violation(path, expected string, got any) *Violation {
	return &Violation{Path: path, Expected: expected, Got: kindOf(got)}
}

func missing(path, expected string) *Violation {
	return &Violation{Path: path, Expected: expected, Got: "missing field"}
}

func kindOf(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", val)
	case json.Number:
		return "number " + val.String()
	case bool:
		return fmt.Sprintf("boolean %t", val)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
