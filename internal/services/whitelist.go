package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FieldKind is the JSON shape a writable column accepts.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindDate
	KindUUID
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	case KindTime:
		return "timestamp"
	case KindDate:
		return "date"
	case KindUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

type FieldSpec struct {
	Kind     FieldKind
	Nullable bool
}

// FieldSchema lists the columns a client may write, keyed by JSON name.
// JSON names equal column names throughout the API.
type FieldSchema map[string]FieldSpec

// ApplyUpdate keeps the keys of raw that schema knows, converts each value
// to its column type and returns the map for gorm's Updates. Unknown keys
// are dropped silently; a known key with the wrong type is a ValidationError.
func ApplyUpdate(schema FieldSchema, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for name, value := range raw {
		field, ok := schema[name]
		if !ok {
			continue
		}
		converted, err := convertField(field, value)
		if err != nil {
			return nil, invalid(fmt.Sprintf("Invalid value for %s: expected %s", name, field.Kind))
		}
		out[name] = converted
	}
	return out, nil
}

func convertField(field FieldSpec, value any) (any, error) {
	if value == nil {
		if field.Nullable {
			return nil, nil
		}
		return nil, fmt.Errorf("null not allowed")
	}

	switch field.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		return s, nil
	case KindInt:
		switch n := value.(type) {
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return nil, fmt.Errorf("not an integer")
			}
			return int(n), nil
		case int:
			return n, nil
		}
		return nil, fmt.Errorf("not an integer")
	case KindFloat:
		switch n := value.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
		return nil, fmt.Errorf("not a number")
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("not a boolean")
		}
		return b, nil
	case KindTime:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("not a timestamp")
		}
		if s == "" && field.Nullable {
			return nil, nil
		}
		return parseTimestamp(s)
	case KindDate:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("not a date")
		}
		if s == "" && field.Nullable {
			return nil, nil
		}
		d, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindUUID:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("not a uuid")
		}
		if s == "" && field.Nullable {
			return nil, nil
		}
		return uuid.Parse(s)
	}
	return nil, fmt.Errorf("unsupported kind %d", field.Kind)
}

// parseTimestamp accepts RFC 3339, the datetime-local form browsers send,
// and a bare date.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseDate(s string) (datatypes.Date, error) {
	t, err := parseTimestamp(s)
	if err != nil {
		return datatypes.Date{}, err
	}
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
}
