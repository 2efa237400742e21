package ir

import (
	"encoding/json"
	"fmt"
)

// TokenView is the plain, serializable form of a Token used by the CLI and
// the store. Values use the tagged text form of FormatValue.
type TokenView struct {
	Signal        string          `json:"signal" yaml:"signal"`
	Name          string          `json:"name" yaml:"name"`
	SchemaID      int64           `json:"schema_id" yaml:"schema_id"`
	PrimitiveType string          `json:"primitive_type,omitempty" yaml:"primitive_type,omitempty"`
	Size          int32           `json:"size" yaml:"size"`
	Offset        int32           `json:"offset" yaml:"offset"`
	ByteOrder     string          `json:"byte_order,omitempty" yaml:"byte_order,omitempty"`
	Constraints   ConstraintsView `json:"constraints" yaml:"constraints"`
}

// ConstraintsView is the plain, serializable form of Constraints.
type ConstraintsView struct {
	Presence      string `json:"presence" yaml:"presence"`
	MinValue      string `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue      string `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	NullValue     string `json:"null_value,omitempty" yaml:"null_value,omitempty"`
	ConstantValue string `json:"constant_value,omitempty" yaml:"constant_value,omitempty"`
	SemanticType  string `json:"semantic_type,omitempty" yaml:"semantic_type,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
}

// View returns the serializable form of t.
func (t Token) View() TokenView {
	v := TokenView{
		Signal:      t.signal.String(),
		Name:        t.name,
		SchemaID:    t.schemaID,
		Size:        t.size,
		Offset:      t.offset,
		Constraints: t.Constraints().View(),
	}
	if pt, ok := t.PrimitiveType(); ok {
		v.PrimitiveType = pt.String()
	}
	if bo, ok := t.ByteOrder(); ok {
		v.ByteOrder = bo.String()
	}
	return v
}

// View returns the serializable form of c.
func (c *Constraints) View() ConstraintsView {
	v := ConstraintsView{
		Presence:     c.presence.String(),
		SemanticType: c.semanticType,
		Description:  c.description,
	}
	if c.minValue != nil {
		v.MinValue = c.minValue.String()
	}
	if c.maxValue != nil {
		v.MaxValue = c.maxValue.String()
	}
	if c.nullValue != nil {
		v.NullValue = c.nullValue.String()
	}
	if c.constantValue != nil {
		v.ConstantValue = c.constantValue.String()
	}
	return v
}

// FromView rebuilds Constraints through NewConstraints so invariants hold.
func (v ConstraintsView) FromView() (*Constraints, error) {
	opts := []ConstraintOption{WithSemanticType(v.SemanticType), WithDescription(v.Description)}

	if v.Presence != "" {
		p, err := LookupPresence(v.Presence)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPresence(p))
	}

	values := []struct {
		text string
		set  func(PrimitiveValue) ConstraintOption
	}{
		{v.MinValue, WithMinValue},
		{v.MaxValue, WithMaxValue},
		{v.NullValue, WithNullValue},
		{v.ConstantValue, WithConstantValue},
	}
	for _, val := range values {
		if val.text == "" {
			continue
		}
		pv, err := ParseValue(val.text)
		if err != nil {
			return nil, err
		}
		opts = append(opts, val.set(pv))
	}

	return NewConstraints(opts...)
}

// FromView rebuilds a Token through the constructors so invariants hold.
// Views with a primitive type use the full form; others the reduced form.
func (v TokenView) FromView() (Token, error) {
	signal, err := LookupSignal(v.Signal)
	if err != nil {
		return Token{}, err
	}
	constraints, err := v.Constraints.FromView()
	if err != nil {
		return Token{}, err
	}

	if v.PrimitiveType == "" {
		if v.Size != 0 || v.ByteOrder != "" {
			return Token{}, fmt.Errorf("token %q: size and byte order require a primitive type", v.Name)
		}
		tok, err := NewStructuralToken(signal, v.Name, v.SchemaID, constraints)
		if err != nil {
			return Token{}, err
		}
		return tok.WithOffset(v.Offset), nil
	}

	pt, err := LookupPrimitiveType(v.PrimitiveType)
	if err != nil {
		return Token{}, err
	}
	var bo ByteOrder
	if v.ByteOrder != "" {
		if bo, err = LookupByteOrder(v.ByteOrder); err != nil {
			return Token{}, err
		}
	}
	return NewToken(signal, v.Name, v.SchemaID, pt, v.Size, v.Offset, bo, constraints)
}

// MarshalJSON implements json.Marshaler via TokenView.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.View())
}

// UnmarshalJSON implements json.Unmarshaler via TokenView.FromView.
func (t *Token) UnmarshalJSON(data []byte) error {
	var v TokenView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	tok, err := v.FromView()
	if err != nil {
		return err
	}
	*t = tok
	return nil
}

// MarshalYAML implements yaml.Marshaler via TokenView.
func (t Token) MarshalYAML() (any, error) {
	return t.View(), nil
}
