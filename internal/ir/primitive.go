package ir

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PrimitiveType is a scalar encoding from the closed catalog.
// The zero value means "no primitive type" and is never a catalog entry.
type PrimitiveType uint8

// PrimitiveType values.
const (
	_ PrimitiveType = iota

	Char
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float
	Double
)

type primitiveInfo struct {
	name string
	size int32
	min  PrimitiveValue
	max  PrimitiveValue
	null PrimitiveValue
}

var primitiveCatalog = [...]primitiveInfo{
	Char:   {"char", 1, CharValue(0x20), CharValue(0x7e), CharValue(0)},
	Int8:   {"int8", 1, IntValue(math.MinInt8 + 1), IntValue(math.MaxInt8), IntValue(math.MinInt8)},
	Int16:  {"int16", 2, IntValue(math.MinInt16 + 1), IntValue(math.MaxInt16), IntValue(math.MinInt16)},
	Int32:  {"int32", 4, IntValue(math.MinInt32 + 1), IntValue(math.MaxInt32), IntValue(math.MinInt32)},
	Int64:  {"int64", 8, IntValue(math.MinInt64 + 1), IntValue(math.MaxInt64), IntValue(math.MinInt64)},
	Uint8:  {"uint8", 1, UintValue(0), UintValue(math.MaxUint8 - 1), UintValue(math.MaxUint8)},
	Uint16: {"uint16", 2, UintValue(0), UintValue(math.MaxUint16 - 1), UintValue(math.MaxUint16)},
	Uint32: {"uint32", 4, UintValue(0), UintValue(math.MaxUint32 - 1), UintValue(math.MaxUint32)},
	Uint64: {"uint64", 8, UintValue(0), UintValue(math.MaxUint64 - 1), UintValue(math.MaxUint64)},
	Float:  {"float", 4, FloatValue(-math.MaxFloat32), FloatValue(math.MaxFloat32), FloatValue(math.NaN())},
	Double: {"double", 8, FloatValue(-math.MaxFloat64), FloatValue(math.MaxFloat64), FloatValue(math.NaN())},
}

var primitiveByName = func() map[string]PrimitiveType {
	m := make(map[string]PrimitiveType, len(primitiveCatalog))
	for pt := Char; pt <= Double; pt++ {
		m[primitiveCatalog[pt].name] = pt
	}
	return m
}()

// PrimitiveTypes returns every catalog entry in declaration order.
func PrimitiveTypes() []PrimitiveType {
	out := make([]PrimitiveType, 0, Double)
	for pt := Char; pt <= Double; pt++ {
		out = append(out, pt)
	}
	return out
}

// LookupPrimitiveType resolves a catalog entry by its schema name ("uint32").
func LookupPrimitiveType(name string) (PrimitiveType, error) {
	pt, ok := primitiveByName[name]
	if !ok {
		return 0, &Error{
			Kind:    KindUnknownPrimitiveType,
			Field:   "primitiveType",
			Message: fmt.Sprintf("no primitive type named %q", name),
		}
	}
	return pt, nil
}

// Valid reports whether pt is a catalog entry.
func (pt PrimitiveType) Valid() bool {
	return pt >= Char && pt <= Double
}

func (pt PrimitiveType) info() primitiveInfo {
	if !pt.Valid() {
		return primitiveInfo{name: "none"}
	}
	return primitiveCatalog[pt]
}

// String returns the schema name, or "none" for the zero value.
func (pt PrimitiveType) String() string {
	return pt.info().name
}

// Size returns the byte width. Zero for an invalid type.
func (pt PrimitiveType) Size() int32 {
	return pt.info().size
}

// MinValue returns the smallest value a field of this type may carry.
func (pt PrimitiveType) MinValue() PrimitiveValue {
	return pt.info().min
}

// MaxValue returns the largest value a field of this type may carry.
func (pt PrimitiveType) MaxValue() PrimitiveValue {
	return pt.info().max
}

// NullValue returns the sentinel that encodes "no value" for optional fields.
func (pt PrimitiveType) NullValue() PrimitiveValue {
	return pt.info().null
}

// IsSigned reports whether the type is a signed integer.
func (pt PrimitiveType) IsSigned() bool {
	return pt >= Int8 && pt <= Int64
}

// IsUnsigned reports whether the type is an unsigned integer.
func (pt PrimitiveType) IsUnsigned() bool {
	return pt >= Uint8 && pt <= Uint64
}

// IsFloat reports whether the type is float or double.
func (pt PrimitiveType) IsFloat() bool {
	return pt == Float || pt == Double
}

// Fits reports whether v lies within [MinValue, MaxValue] or equals the
// null sentinel. Kinds must agree: a float cannot constrain an integer type.
func (pt PrimitiveType) Fits(v PrimitiveValue) bool {
	if !pt.Valid() || v == nil {
		return false
	}
	if valuesEqual(v, pt.NullValue()) {
		return true
	}
	switch v.(type) {
	case FloatValue:
		if !pt.IsFloat() {
			return false
		}
	case CharValue:
		if pt != Char {
			return false
		}
	default:
		if pt.IsFloat() || pt == Char {
			return false
		}
	}
	lo, err := CompareValues(v, pt.MinValue())
	if err != nil || lo < 0 {
		return false
	}
	hi, err := CompareValues(v, pt.MaxValue())
	return err == nil && hi <= 0
}

// MarshalText implements encoding.TextMarshaler.
func (pt PrimitiveType) MarshalText() ([]byte, error) {
	if !pt.Valid() {
		return nil, fmt.Errorf("marshal primitive type: invalid value %d", uint8(pt))
	}
	return []byte(pt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pt *PrimitiveType) UnmarshalText(text []byte) error {
	v, err := LookupPrimitiveType(string(text))
	if err != nil {
		return err
	}
	*pt = v
	return nil
}

// ByteOrder is the wire byte order of an encoding.
// The zero value means "no byte order".
type ByteOrder uint8

// ByteOrder values.
const (
	_ ByteOrder = iota

	LittleEndian
	BigEndian
)

// Valid reports whether bo is LittleEndian or BigEndian.
func (bo ByteOrder) Valid() bool {
	return bo == LittleEndian || bo == BigEndian
}

// String returns "LittleEndian", "BigEndian" or "none".
func (bo ByteOrder) String() string {
	switch bo {
	case LittleEndian:
		return "LittleEndian"
	case BigEndian:
		return "BigEndian"
	default:
		return "none"
	}
}

// Binary returns the matching encoding/binary byte order for consumers that
// generate codecs. Returns nil for an invalid byte order.
func (bo ByteOrder) Binary() binary.ByteOrder {
	switch bo {
	case LittleEndian:
		return binary.LittleEndian
	case BigEndian:
		return binary.BigEndian
	default:
		return nil
	}
}

// LookupByteOrder accepts the rendered names and the schema spellings
// "littleEndian" and "bigEndian".
func LookupByteOrder(name string) (ByteOrder, error) {
	switch name {
	case "LittleEndian", "littleEndian":
		return LittleEndian, nil
	case "BigEndian", "bigEndian":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (bo ByteOrder) MarshalText() ([]byte, error) {
	if !bo.Valid() {
		return nil, fmt.Errorf("marshal byte order: invalid value %d", uint8(bo))
	}
	return []byte(bo.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (bo *ByteOrder) UnmarshalText(text []byte) error {
	v, err := LookupByteOrder(string(text))
	if err != nil {
		return err
	}
	*bo = v
	return nil
}
