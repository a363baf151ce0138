package core

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// WholeInt converts a decoded value to an int. Codecs hand back integers in
// various widths, and some decode whole numbers as floats, so both are
// accepted. Fractional floats, strings and bools are rejected.
func WholeInt(v any) (int, error) {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToIntE(n)
	case float32:
		return wholeFloat(float64(n))
	case float64:
		return wholeFloat(n)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func wholeFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	return int(f), nil
}

// Number converts a decoded integer or float to a float64.
func Number(v any) (float64, error) {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToFloat64E(n)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
