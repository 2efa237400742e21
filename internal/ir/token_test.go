package ir

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serialConstraints(t *testing.T) *Constraints {
	t.Helper()
	c, err := NewConstraints(
		WithPresence(PresenceOptional),
		WithMinValue(UintValue(1)),
		WithMaxValue(UintValue(1000)),
		WithNullValue(UintValue(4294967295)),
		WithSemanticType("SerialNumber"),
		WithDescription("vehicle serial"),
	)
	require.NoError(t, err)
	return c
}

func headerSequence(t *testing.T) Sequence {
	t.Helper()
	var b Builder
	b.Append(
		MustToken(NewDelimiter(BeginMessage, "Car", 100)),
		MustToken(NewDelimiter(BeginField, "serial", 25)),
		MustToken(NewToken(Encoding, "uint32", InvalidID, Uint32, 4, 0, LittleEndian, serialConstraints(t))),
		MustToken(NewDelimiter(EndField, "serial", 25)),
		MustToken(NewDelimiter(EndMessage, "Car", 100)),
	)
	return b.Build()
}

func TestNewTokenRoundTrip(t *testing.T) {
	c := serialConstraints(t)
	tok, err := NewToken(Encoding, "uint32", 7, Uint32, 4, 12, BigEndian, c)
	require.NoError(t, err)

	assert.Equal(t, Encoding, tok.Signal())
	assert.Equal(t, "uint32", tok.Name())
	assert.Equal(t, int64(7), tok.SchemaID())
	pt, ok := tok.PrimitiveType()
	assert.True(t, ok)
	assert.Equal(t, Uint32, pt)
	assert.Equal(t, int32(4), tok.Size())
	assert.Equal(t, int32(12), tok.Offset())
	bo, ok := tok.ByteOrder()
	assert.True(t, ok)
	assert.Equal(t, BigEndian, bo)
	assert.Same(t, c, tok.Constraints())
}

func TestNewTokenKeepsSentinels(t *testing.T) {
	tok, err := NewToken(Encoding, "data", InvalidID, Uint8, VariableSize, UnknownOffset, LittleEndian, MustConstraints())
	require.NoError(t, err)

	assert.Equal(t, InvalidID, tok.SchemaID())
	assert.Equal(t, VariableSize, tok.Size())
	assert.Equal(t, UnknownOffset, tok.Offset())
}

func TestStructuralTokenRoundTrip(t *testing.T) {
	c := MustConstraints(WithDescription("a car"))
	tok, err := NewStructuralToken(BeginMessage, "Car", 1, c)
	require.NoError(t, err)

	assert.Equal(t, BeginMessage, tok.Signal())
	assert.Equal(t, "Car", tok.Name())
	assert.Equal(t, int64(1), tok.SchemaID())
	assert.Equal(t, "a car", tok.Constraints().Description())
}

func TestReducedAndMinimalFormsHaveNoEncoding(t *testing.T) {
	reduced := MustToken(NewStructuralToken(BeginField, "f", 1, MustConstraints()))
	minimal := MustToken(NewDelimiter(EndField, "f", 1))

	for name, tok := range map[string]Token{"reduced": reduced, "minimal": minimal} {
		t.Run(name, func(t *testing.T) {
			_, ok := tok.PrimitiveType()
			assert.False(t, ok, "primitive type must be absent")
			_, ok = tok.ByteOrder()
			assert.False(t, ok, "byte order must be absent")
			assert.Equal(t, int32(0), tok.Size())
			assert.Equal(t, int32(0), tok.Offset())
			assert.False(t, tok.HasEncoding())
			require.NotNil(t, tok.Constraints())
		})
	}
}

func TestMinimalFormIsUnconstrained(t *testing.T) {
	tok := MustToken(NewDelimiter(BeginMessage, "Car", 1))
	c := tok.Constraints()

	assert.Equal(t, PresenceRequired, c.Presence())
	_, ok := c.MinValue()
	assert.False(t, ok)
	_, ok = c.MaxValue()
	assert.False(t, ok)
	assert.True(t, c.Equal(MustConstraints()))
}

func TestMissingNameOrSignalFailsForAllForms(t *testing.T) {
	c := MustConstraints()
	forms := map[string]func(Signal, string) error{
		"full": func(s Signal, n string) error {
			_, err := NewToken(s, n, 1, Int32, 4, 0, LittleEndian, c)
			return err
		},
		"reduced": func(s Signal, n string) error {
			_, err := NewStructuralToken(s, n, 1, c)
			return err
		},
		"minimal": func(s Signal, n string) error {
			_, err := NewDelimiter(s, n, 1)
			return err
		},
	}

	for name, build := range forms {
		t.Run(name+"/no name", func(t *testing.T) {
			err := build(Encoding, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingRequiredField)
			var ierr *Error
			require.True(t, errors.As(err, &ierr))
			assert.Equal(t, "name", ierr.Field)
		})
		t.Run(name+"/no signal", func(t *testing.T) {
			err := build(Signal(0), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingRequiredField)
			var ierr *Error
			require.True(t, errors.As(err, &ierr))
			assert.Equal(t, "signal", ierr.Field)
		})
	}
}

func TestFullFormRequiresEncodingMetadata(t *testing.T) {
	tests := []struct {
		name  string
		pt    PrimitiveType
		bo    ByteOrder
		c     *Constraints
		field string
	}{
		{"no primitive type", 0, LittleEndian, MustConstraints(), "primitiveType"},
		{"no byte order", Int8, 0, MustConstraints(), "byteOrder"},
		{"no constraints", Int8, LittleEndian, nil, "constraints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToken(Encoding, "x", InvalidID, tt.pt, 1, 0, tt.bo, tt.c)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingRequiredField)
			assert.Equal(t, KindMissingRequiredField, KindOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestFullFormRejectsValuesOutsidePrimitiveType(t *testing.T) {
	tests := []struct {
		name  string
		pt    PrimitiveType
		opts  []ConstraintOption
		field string
	}{
		{"float min on uint8", Uint8, []ConstraintOption{WithMinValue(FloatValue(-2.5))}, "minValue"},
		{"negative max on uint8", Uint8, []ConstraintOption{WithMaxValue(IntValue(-1))}, "maxValue"},
		{"char null on uint8", Uint8, []ConstraintOption{
			WithPresence(PresenceOptional), WithNullValue(CharValue('x')),
		}, "nullValue"},
		{"int constant on char", Char, []ConstraintOption{
			WithPresence(PresenceConstant), WithConstantValue(IntValue(65)),
		}, "constantValue"},
		{"max above int8", Int8, []ConstraintOption{WithMaxValue(IntValue(200))}, "maxValue"},
		{"int min on double", Double, []ConstraintOption{WithMinValue(IntValue(0))}, "minValue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToken(Encoding, tt.pt.String(), InvalidID, tt.pt, tt.pt.Size(), 0, LittleEndian,
				MustConstraints(tt.opts...))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConstraintRange)
			assert.Equal(t, KindInvalidConstraintRange, KindOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestFullFormAcceptsValuesWithinPrimitiveType(t *testing.T) {
	tests := []struct {
		name string
		pt   PrimitiveType
		opts []ConstraintOption
	}{
		{"uint range on uint8", Uint8, []ConstraintOption{WithMinValue(UintValue(1)), WithMaxValue(UintValue(200))}},
		{"int zero on uint8", Uint8, []ConstraintOption{WithMinValue(IntValue(0))}},
		{"null sentinel on int8", Int8, []ConstraintOption{
			WithPresence(PresenceOptional), WithNullValue(IntValue(-128)),
		}},
		{"char constant", Char, []ConstraintOption{
			WithPresence(PresenceConstant), WithConstantValue(CharValue('A')),
		}},
		{"float bounds on double", Double, []ConstraintOption{
			WithMinValue(FloatValue(0)), WithMaxValue(FloatValue(1e6)),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToken(Encoding, tt.pt.String(), InvalidID, tt.pt, tt.pt.Size(), 0, LittleEndian,
				MustConstraints(tt.opts...))
			assert.NoError(t, err)
		})
	}
}

func TestReducedFormRequiresConstraints(t *testing.T) {
	_, err := NewStructuralToken(BeginField, "f", 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestWithOffsetReturnsCopy(t *testing.T) {
	orig := MustToken(NewToken(Encoding, "int32", InvalidID, Int32, 4, UnknownOffset, LittleEndian, MustConstraints()))
	moved := orig.WithOffset(8)

	assert.Equal(t, UnknownOffset, orig.Offset(), "original must be unchanged")
	assert.Equal(t, int32(8), moved.Offset())
	assert.Equal(t, orig.Name(), moved.Name())
	assert.False(t, orig.Equal(moved))
}

func TestWithConstraintsReturnsCopy(t *testing.T) {
	orig := MustToken(NewDelimiter(BeginField, "f", 1))
	c := MustConstraints(WithDescription("changed"))
	changed := orig.WithConstraints(c)

	assert.Equal(t, "", orig.Constraints().Description())
	assert.Equal(t, "changed", changed.Constraints().Description())
	assert.True(t, orig.Equal(orig.WithConstraints(nil)))
}

func TestTokenStringIncludesEveryField(t *testing.T) {
	tok := MustToken(NewToken(Encoding, "uint32", InvalidID, Uint32, 4, 0, LittleEndian, serialConstraints(t)))
	s := tok.String()

	for _, label := range []string{"signal=", "name=", "schemaID=", "primitiveType=", "size=", "offset=", "byteOrder=", "constraints="} {
		assert.Contains(t, s, label)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "encoding_token", []byte(s))
}

func TestTokenStringDeterministic(t *testing.T) {
	tok := MustToken(NewToken(Encoding, "uint32", InvalidID, Uint32, 4, 0, LittleEndian, serialConstraints(t)))
	assert.Equal(t, tok.String(), tok.String())
}

func TestMustTokenPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustToken(NewDelimiter(BeginField, "", 1))
	})
}
