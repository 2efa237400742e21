package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PrimitiveValue is a sealed interface for constraint values.
// Only IntValue, UintValue, FloatValue and CharValue implement it.
type PrimitiveValue interface {
	primitiveValue() // Sealed
	fmt.Stringer
}

// IntValue is a signed integer constraint value.
type IntValue int64

func (IntValue) primitiveValue() {}

func (v IntValue) String() string { return "int:" + strconv.FormatInt(int64(v), 10) }

// UintValue is an unsigned integer constraint value.
type UintValue uint64

func (UintValue) primitiveValue() {}

func (v UintValue) String() string { return "uint:" + strconv.FormatUint(uint64(v), 10) }

// FloatValue is a floating point constraint value. NaN is a legal value
// (it is the null sentinel of float and double).
type FloatValue float64

func (FloatValue) primitiveValue() {}

func (v FloatValue) String() string {
	return "float:" + strconv.FormatFloat(float64(v), 'g', -1, 64)
}

// CharValue is a single-byte character constraint value.
type CharValue byte

func (CharValue) primitiveValue() {}

func (v CharValue) String() string { return "char:" + strconv.FormatUint(uint64(v), 10) }

// FormatValue renders a value in its tagged text form ("int:-5", "uint:10",
// "float:1.5", "char:65"). A nil value renders as "none".
func FormatValue(v PrimitiveValue) string {
	if v == nil {
		return "none"
	}
	return v.String()
}

// ParseValue parses the tagged text form produced by FormatValue.
func ParseValue(s string) (PrimitiveValue, error) {
	tag, text, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("value %q: missing type tag", s)
	}
	switch tag {
	case "int":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return IntValue(n), nil
	case "uint":
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return UintValue(n), nil
	case "float":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return FloatValue(f), nil
	case "char":
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return CharValue(n), nil
	default:
		return nil, fmt.Errorf("value %q: unknown type tag %q", s, tag)
	}
}

// CompareValues orders two values numerically across kinds.
// Returns -1, 0 or 1. Comparisons involving NaN report an error
// because NaN has no order.
func CompareValues(a, b PrimitiveValue) (int, error) {
	if a == nil || b == nil {
		return 0, fmt.Errorf("compare: nil value")
	}

	if isFloat(a) || isFloat(b) {
		fa, fb := toFloat(a), toFloat(b)
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return 0, fmt.Errorf("compare %s with %s: NaN is unordered", a, b)
		}
		return cmpOrdered(fa, fb), nil
	}

	// Integer kinds. Negative signed values sort below every unsigned value.
	ai, aNeg := toInt(a)
	bi, bNeg := toInt(b)
	switch {
	case aNeg && bNeg:
		return cmpOrdered(ai, bi), nil
	case aNeg:
		return -1, nil
	case bNeg:
		return 1, nil
	default:
		return cmpOrdered(toUint(a), toUint(b)), nil
	}
}

func isFloat(v PrimitiveValue) bool {
	_, ok := v.(FloatValue)
	return ok
}

func toFloat(v PrimitiveValue) float64 {
	switch val := v.(type) {
	case IntValue:
		return float64(val)
	case UintValue:
		return float64(val)
	case FloatValue:
		return float64(val)
	case CharValue:
		return float64(val)
	default:
		return math.NaN()
	}
}

// toInt returns the signed value and whether it is negative.
func toInt(v PrimitiveValue) (int64, bool) {
	if val, ok := v.(IntValue); ok {
		return int64(val), val < 0
	}
	return 0, false
}

// toUint returns the value of a non-negative integer kind.
func toUint(v PrimitiveValue) uint64 {
	switch val := v.(type) {
	case IntValue:
		return uint64(val)
	case UintValue:
		return uint64(val)
	case CharValue:
		return uint64(val)
	default:
		return 0
	}
}

func cmpOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// valuesEqual compares values by kind and bits, so NaN equals NaN.
func valuesEqual(a, b PrimitiveValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, aok := a.(FloatValue)
	fb, bok := b.(FloatValue)
	if aok && bok {
		return math.Float64bits(float64(fa)) == math.Float64bits(float64(fb)) ||
			(math.IsNaN(float64(fa)) && math.IsNaN(float64(fb)))
	}
	return a == b
}
