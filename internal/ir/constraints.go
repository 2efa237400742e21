package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Presence states whether a field must, may, or never varies on the wire.
// The zero value is PresenceRequired.
type Presence uint8

// Presence values.
const (
	PresenceRequired Presence = iota
	PresenceOptional
	PresenceConstant
)

// String returns "required", "optional" or "constant".
func (p Presence) String() string {
	switch p {
	case PresenceRequired:
		return "required"
	case PresenceOptional:
		return "optional"
	case PresenceConstant:
		return "constant"
	default:
		return fmt.Sprintf("Presence(%d)", uint8(p))
	}
}

// LookupPresence resolves a presence by name.
func LookupPresence(name string) (Presence, error) {
	switch name {
	case "required":
		return PresenceRequired, nil
	case "optional":
		return PresenceOptional, nil
	case "constant":
		return PresenceConstant, nil
	default:
		return 0, fmt.Errorf("unknown presence %q", name)
	}
}

// Constraints is the semantic metadata attached to a Token.
// It is read-only; use With to derive a modified copy.
type Constraints struct {
	presence      Presence
	minValue      PrimitiveValue
	maxValue      PrimitiveValue
	nullValue     PrimitiveValue
	constantValue PrimitiveValue
	semanticType  string
	description   string
}

// ConstraintOption sets one field during construction or derivation.
type ConstraintOption func(*Constraints)

// WithPresence sets the presence requirement.
func WithPresence(p Presence) ConstraintOption {
	return func(c *Constraints) { c.presence = p }
}

// WithMinValue sets the minimum value.
func WithMinValue(v PrimitiveValue) ConstraintOption {
	return func(c *Constraints) { c.minValue = v }
}

// WithMaxValue sets the maximum value.
func WithMaxValue(v PrimitiveValue) ConstraintOption {
	return func(c *Constraints) { c.maxValue = v }
}

// WithNullValue sets the value that encodes "absent" for optional fields.
func WithNullValue(v PrimitiveValue) ConstraintOption {
	return func(c *Constraints) { c.nullValue = v }
}

// WithConstantValue sets the value of a constant field.
func WithConstantValue(v PrimitiveValue) ConstraintOption {
	return func(c *Constraints) { c.constantValue = v }
}

// WithSemanticType sets the free-form classification (e.g. "Price").
func WithSemanticType(s string) ConstraintOption {
	return func(c *Constraints) { c.semanticType = s }
}

// WithDescription sets the free-text description.
func WithDescription(s string) ConstraintOption {
	return func(c *Constraints) { c.description = s }
}

// NewConstraints builds a validated Constraints record. With no options the
// record is unconstrained: required, no bounds.
//
// Fails with ErrInvalidConstraintRange if both bounds are present and
// minValue > maxValue, and with ErrMissingRequiredField if presence is
// constant without a constant value.
func NewConstraints(opts ...ConstraintOption) (*Constraints, error) {
	c := &Constraints{}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustConstraints is like NewConstraints but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustConstraints(opts ...ConstraintOption) *Constraints {
	c, err := NewConstraints(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// With derives a new record from c with the options applied. c is unchanged.
func (c *Constraints) With(opts ...ConstraintOption) (*Constraints, error) {
	next := *c
	for _, opt := range opts {
		opt(&next)
	}
	if err := next.validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// WithDefaultNull derives a record whose null value is pt's null sentinel
// when the field is optional and no null value was given. Otherwise it
// returns c itself.
func (c *Constraints) WithDefaultNull(pt PrimitiveType) *Constraints {
	if c.presence != PresenceOptional || c.nullValue != nil || !pt.Valid() {
		return c
	}
	next := *c
	next.nullValue = pt.NullValue()
	return &next
}

func (c *Constraints) validate() error {
	if c.presence > PresenceConstant {
		return &Error{
			Kind:    KindMissingRequiredField,
			Field:   "presence",
			Message: fmt.Sprintf("invalid presence %d", uint8(c.presence)),
		}
	}
	if c.presence == PresenceConstant && c.constantValue == nil {
		return &Error{
			Kind:    KindMissingRequiredField,
			Field:   "constantValue",
			Message: "constant presence requires a constant value",
		}
	}
	if c.minValue != nil && c.maxValue != nil {
		cmp, err := CompareValues(c.minValue, c.maxValue)
		if err != nil {
			return &Error{
				Kind:    KindInvalidConstraintRange,
				Field:   "minValue",
				Message: err.Error(),
			}
		}
		if cmp > 0 {
			return &Error{
				Kind:    KindInvalidConstraintRange,
				Field:   "minValue",
				Message: fmt.Sprintf("minValue %s exceeds maxValue %s", c.minValue, c.maxValue),
			}
		}
	}
	return nil
}

// Presence returns the presence requirement.
func (c *Constraints) Presence() Presence { return c.presence }

// MinValue returns the minimum value if one was set.
func (c *Constraints) MinValue() (PrimitiveValue, bool) { return c.minValue, c.minValue != nil }

// MaxValue returns the maximum value if one was set.
func (c *Constraints) MaxValue() (PrimitiveValue, bool) { return c.maxValue, c.maxValue != nil }

// NullValue returns the null value if one was set.
func (c *Constraints) NullValue() (PrimitiveValue, bool) { return c.nullValue, c.nullValue != nil }

// ConstantValue returns the constant value if one was set. Consumers ignore
// minValue and maxValue when presence is constant.
func (c *Constraints) ConstantValue() (PrimitiveValue, bool) {
	return c.constantValue, c.constantValue != nil
}

// SemanticType returns the classification, empty if none.
func (c *Constraints) SemanticType() string { return c.semanticType }

// Description returns the description, empty if none.
func (c *Constraints) Description() string { return c.description }

// Equal reports whether both records carry the same values.
func (c *Constraints) Equal(other *Constraints) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.presence == other.presence &&
		valuesEqual(c.minValue, other.minValue) &&
		valuesEqual(c.maxValue, other.maxValue) &&
		valuesEqual(c.nullValue, other.nullValue) &&
		valuesEqual(c.constantValue, other.constantValue) &&
		c.semanticType == other.semanticType &&
		c.description == other.description
}

// String renders every field by name, absent values as none.
func (c *Constraints) String() string {
	var b strings.Builder
	b.WriteString("Constraints{presence=")
	b.WriteString(c.presence.String())
	b.WriteString(", minValue=")
	b.WriteString(FormatValue(c.minValue))
	b.WriteString(", maxValue=")
	b.WriteString(FormatValue(c.maxValue))
	b.WriteString(", nullValue=")
	b.WriteString(FormatValue(c.nullValue))
	b.WriteString(", constantValue=")
	b.WriteString(FormatValue(c.constantValue))
	b.WriteString(", semanticType=")
	b.WriteString(quoteOrNone(c.semanticType))
	b.WriteString(", description=")
	b.WriteString(quoteOrNone(c.description))
	b.WriteByte('}')
	return b.String()
}

func quoteOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return strconv.Quote(s)
}
