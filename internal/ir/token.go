package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel integers with fixed meanings. 0 is a real size and a real offset,
// so none of these may be reinterpreted as "missing".
const (
	// InvalidID marks a token without a schema-assigned identifier.
	InvalidID int64 = -1

	// VariableSize marks a variable-length encoding.
	VariableSize int32 = -1

	// UnknownOffset marks an offset that depends on variable-length content
	// earlier in the sequence and must be computed by a later pass.
	UnknownOffset int32 = -1
)

// Token is one element of the IR. It binds a Signal, identity, optional
// encoding metadata and Constraints. Tokens are immutable; WithOffset and
// WithConstraints return modified copies for transformation passes.
//
// An example message header:
//
//	BEGIN_MESSAGE  name=Car       schemaID=100
//	BEGIN_FIELD    name=serial    schemaID=25
//	ENCODING       name=uint32    primitiveType=uint32 size=4 offset=0
//	END_FIELD      name=serial    schemaID=25
//	END_MESSAGE    name=Car       schemaID=100
type Token struct {
	signal        Signal
	name          string
	schemaID      int64
	primitiveType PrimitiveType
	size          int32
	offset        int32
	byteOrder     ByteOrder
	constraints   *Constraints
}

// NewToken constructs a Token with every field explicit.
//
// signal, name, primitiveType, byteOrder and constraints are all required;
// a token without encoding metadata must use NewStructuralToken or
// NewDelimiter. Fails with ErrMissingRequiredField naming the first unset field,
// or ErrInvalidConstraintRange when a constraint value does not fit
// primitiveType.
func NewToken(
	signal Signal,
	name string,
	schemaID int64,
	primitiveType PrimitiveType,
	size int32,
	offset int32,
	byteOrder ByteOrder,
	constraints *Constraints,
) (Token, error) {
	if err := checkIdentity(signal, name); err != nil {
		return Token{}, err
	}
	if !primitiveType.Valid() {
		return Token{}, missingField("primitiveType")
	}
	if !byteOrder.Valid() {
		return Token{}, missingField("byteOrder")
	}
	if constraints == nil {
		return Token{}, missingField("constraints")
	}
	if err := checkValues(primitiveType, constraints); err != nil {
		return Token{}, err
	}
	return Token{
		signal:        signal,
		name:          name,
		schemaID:      schemaID,
		primitiveType: primitiveType,
		size:          size,
		offset:        offset,
		byteOrder:     byteOrder,
		constraints:   constraints,
	}, nil
}

// NewStructuralToken constructs a Token without encoding metadata, for
// delimiters that carry constraints (descriptions, presence). Size and
// offset are 0.
func NewStructuralToken(signal Signal, name string, schemaID int64, constraints *Constraints) (Token, error) {
	if err := checkIdentity(signal, name); err != nil {
		return Token{}, err
	}
	if constraints == nil {
		return Token{}, missingField("constraints")
	}
	return Token{
		signal:      signal,
		name:        name,
		schemaID:    schemaID,
		constraints: constraints,
	}, nil
}

// NewDelimiter constructs an unconstrained Token without encoding metadata.
func NewDelimiter(signal Signal, name string, schemaID int64) (Token, error) {
	if err := checkIdentity(signal, name); err != nil {
		return Token{}, err
	}
	return Token{
		signal:      signal,
		name:        name,
		schemaID:    schemaID,
		constraints: &Constraints{},
	}, nil
}

// MustToken unwraps a constructor result, panicking on error.
// Use only in tests or when inputs are known to be valid.
//
//	tok := ir.MustToken(ir.NewDelimiter(ir.BeginMessage, "Car", 1))
func MustToken(tok Token, err error) Token {
	if err != nil {
		panic(err)
	}
	return tok
}

// checkValues requires every constraint value to share the kind of pt and
// lie within its range or equal its null sentinel.
func checkValues(pt PrimitiveType, c *Constraints) error {
	for _, f := range []struct {
		field string
		get   func() (PrimitiveValue, bool)
	}{
		{"minValue", c.MinValue},
		{"maxValue", c.MaxValue},
		{"nullValue", c.NullValue},
		{"constantValue", c.ConstantValue},
	} {
		v, ok := f.get()
		if !ok || pt.Fits(v) {
			continue
		}
		return &Error{
			Kind:    KindInvalidConstraintRange,
			Field:   f.field,
			Message: fmt.Sprintf("%s %s does not fit %s", f.field, v, pt),
		}
	}
	return nil
}

func checkIdentity(signal Signal, name string) error {
	if !signal.Valid() {
		return missingField("signal")
	}
	if name == "" {
		return missingField("name")
	}
	return nil
}

// Signal returns the structural role.
func (t Token) Signal() Signal { return t.signal }

// Name returns the entity or type name.
func (t Token) Name() string { return t.name }

// SchemaID returns the schema-assigned identifier, or InvalidID.
func (t Token) SchemaID() int64 { return t.schemaID }

// PrimitiveType returns the encoding's primitive type if the token has one.
func (t Token) PrimitiveType() (PrimitiveType, bool) {
	return t.primitiveType, t.primitiveType.Valid()
}

// Size returns the byte length. 0 means no size contribution and
// VariableSize marks a variable-length encoding.
func (t Token) Size() int32 { return t.size }

// Offset returns the byte offset within the enclosing entity. 0 means no
// relevant offset and UnknownOffset means a later pass must compute it.
func (t Token) Offset() int32 { return t.offset }

// ByteOrder returns the encoding's byte order if the token has one.
func (t Token) ByteOrder() (ByteOrder, bool) {
	return t.byteOrder, t.byteOrder.Valid()
}

// Constraints returns the token's constraints. Never nil for a constructed token.
func (t Token) Constraints() *Constraints {
	if t.constraints == nil {
		return &Constraints{}
	}
	return t.constraints
}

// HasEncoding reports whether the token carries a primitive type.
func (t Token) HasEncoding() bool { return t.primitiveType.Valid() }

// WithOffset returns a copy of t at the given offset.
func (t Token) WithOffset(offset int32) Token {
	t.offset = offset
	return t
}

// WithConstraints returns a copy of t with different constraints.
// A nil argument leaves the constraints unchanged.
func (t Token) WithConstraints(c *Constraints) Token {
	if c != nil {
		t.constraints = c
	}
	return t
}

// Equal reports whether both tokens carry the same values.
func (t Token) Equal(other Token) bool {
	return t.signal == other.signal &&
		t.name == other.name &&
		t.schemaID == other.schemaID &&
		t.primitiveType == other.primitiveType &&
		t.size == other.size &&
		t.offset == other.offset &&
		t.byteOrder == other.byteOrder &&
		t.Constraints().Equal(other.Constraints())
}

// String renders every field by name. The format is stable and used by
// golden tests and error messages.
func (t Token) String() string {
	var b strings.Builder
	b.WriteString("Token{signal=")
	b.WriteString(t.signal.String())
	b.WriteString(", name=")
	b.WriteString(strconv.Quote(t.name))
	b.WriteString(", schemaID=")
	b.WriteString(strconv.FormatInt(t.schemaID, 10))
	b.WriteString(", primitiveType=")
	b.WriteString(t.primitiveType.String())
	b.WriteString(", size=")
	b.WriteString(strconv.FormatInt(int64(t.size), 10))
	b.WriteString(", offset=")
	b.WriteString(strconv.FormatInt(int64(t.offset), 10))
	b.WriteString(", byteOrder=")
	b.WriteString(t.byteOrder.String())
	b.WriteString(", constraints=")
	b.WriteString(t.Constraints().String())
	b.WriteByte('}')
	return b.String()
}
