package scenario

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ToFloat coerces a stored value to float64. Storage backends hand numeric
// columns back in different shapes: native numbers, decimal text, JSON
// numbers or driver values such as a pgx numeric. Anything else, and any
// non-finite result, is an error.
func ToFloat(v any) (float64, error) {
	f, err := toFloat(v, true)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}

func toFloat(v any, unwrap bool) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, nil
	case json.Number:
		return parseDecimal(n.String())
	case string:
		return parseDecimal(n)
	case []byte:
		return parseDecimal(string(n))
	case driver.Valuer:
		if !unwrap {
			break
		}
		inner, err := n.Value()
		if err != nil {
			return 0, fmt.Errorf("reading driver value: %w", err)
		}
		if inner == nil {
			return 0, fmt.Errorf("null value")
		}
		return toFloat(inner, false)
	}
	return 0, fmt.Errorf("non-numeric value of type %T", v)
}

func parseDecimal(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty numeric text")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("non-numeric text %q", s)
	}
	f, _ := d.Float64()
	return f, nil
}

// ToString coerces a stored identity or text column to a string.
func ToString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case [16]byte:
		return uuid.UUID(s).String(), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("non-text value of type %T", v)
}

// ToTime coerces a stored timestamp. Text must be RFC 3339.
func ToTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("null timestamp")
		}
		return *t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
		}
		return parsed, nil
	case []byte:
		return ToTime(string(t))
	}
	return time.Time{}, fmt.Errorf("non-timestamp value of type %T", v)
}
