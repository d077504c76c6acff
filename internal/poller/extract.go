package poller

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFieldNotFound is returned when a JSON field path does not resolve.
var ErrFieldNotFound = errors.New("field not found")

// ExtractString decodes body as JSON and returns the scalar at path.
//
// path uses dot notation to walk nested objects ("data.message"). Numbers
// and booleans are formatted as text.
func ExtractString(body []byte, path string) (string, error) {
	value, err := extractPath(body, path)
	if err != nil {
		return "", err
	}
	s, ok := scalarString(value)
	if !ok {
		return "", fmt.Errorf("field %q is not a scalar", path)
	}
	return s, nil
}

// ExtractStrings decodes body as JSON and returns the array at path as text.
//
// Every element must be a scalar; numbers and booleans are formatted as
// text. A JSON null array yields an empty slice.
func ExtractStrings(body []byte, path string) ([]string, error) {
	value, err := extractPath(body, path)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return []string{}, nil
	}

	arr, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %q is not an array", path)
	}

	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := scalarString(item)
		if !ok {
			return nil, fmt.Errorf("field %q: element %d is not a scalar", path, i)
		}
		out = append(out, s)
	}
	return out, nil
}

func extractPath(body []byte, path string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	current := data
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, path)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, path)
		}
	}
	return current, nil
}

func scalarString(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// NewEntries returns the part of a cumulative result list that has not been
// consumed yet.
//
// cursor is the number of entries already consumed. When the list is not
// longer than cursor, no entries are new.
func NewEntries(results []string, cursor int) []string {
	if cursor < 0 {
		cursor = 0
	}
	if len(results) <= cursor {
		return nil
	}
	return append([]string(nil), results[cursor:]...)
}
