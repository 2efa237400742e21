package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/msgir/internal/ir"
)

// enumType is a named enum or choice set. For a set, each value is a bit
// index into the encoding.
type enumType struct {
	name        string
	description string
	encoding    ir.PrimitiveType
	values      []namedValue
}

type namedValue struct {
	name        string
	description string
	value       ir.PrimitiveValue
}

type compositeType struct {
	name        string
	description string
	members     []member
}

type member struct {
	name        string
	primitive   ir.PrimitiveType
	size        int32
	constraints *ir.Constraints
}

// loadTypes reads types.composite, types.enum and types.set. Type names
// share one namespace with each other and with the primitive catalog.
func (c *compiler) loadTypes(v cue.Value) error {
	if !v.Exists() {
		return nil
	}

	seen := make(map[string]bool)
	claim := func(name, kind string, tv cue.Value) error {
		if _, err := ir.LookupPrimitiveType(name); err == nil {
			return &CompileError{
				Field:   "types." + kind + "." + name,
				Message: fmt.Sprintf("type name %q shadows a primitive type", name),
				Pos:     tv.Pos(),
			}
		}
		if seen[name] {
			return &CompileError{
				Field:   "types." + kind + "." + name,
				Message: fmt.Sprintf("type %q is declared more than once", name),
				Pos:     tv.Pos(),
			}
		}
		seen[name] = true
		return nil
	}

	if err := eachStructField(v, "enum", func(name string, tv cue.Value) error {
		if err := claim(name, "enum", tv); err != nil {
			return err
		}
		e, err := parseEnum(name, tv, "types.enum."+name, "values", false)
		if err != nil {
			return err
		}
		c.enums[name] = e
		return nil
	}); err != nil {
		return err
	}

	if err := eachStructField(v, "set", func(name string, tv cue.Value) error {
		if err := claim(name, "set", tv); err != nil {
			return err
		}
		s, err := parseEnum(name, tv, "types.set."+name, "choices", true)
		if err != nil {
			return err
		}
		c.sets[name] = s
		return nil
	}); err != nil {
		return err
	}

	return eachStructField(v, "composite", func(name string, tv cue.Value) error {
		if err := claim(name, "composite", tv); err != nil {
			return err
		}
		comp, err := parseComposite(name, tv, "types.composite."+name)
		if err != nil {
			return err
		}
		c.composites[name] = comp
		return nil
	})
}

func parseEnum(name string, v cue.Value, path, listKey string, isSet bool) (*enumType, error) {
	encName, err := requireString(v, "encodingType", path)
	if err != nil {
		return nil, err
	}
	pt, err := ir.LookupPrimitiveType(encName)
	if err != nil {
		return nil, wrapTokenError(err, path+".encodingType", v.LookupPath(cue.ParsePath("encodingType")).Pos())
	}
	if isSet && !pt.IsUnsigned() {
		return nil, &CompileError{
			Field:   path + ".encodingType",
			Message: fmt.Sprintf("choice set encoding must be an unsigned integer, got %s", pt),
			Pos:     v.Pos(),
		}
	}

	desc, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}
	e := &enumType{name: name, description: desc, encoding: pt}

	names := make(map[string]bool)
	err = eachListItem(v, listKey, func(item cue.Value) error {
		valName, err := requireString(item, "name", path+"."+listKey)
		if err != nil {
			return err
		}
		valPath := path + "." + valName
		if names[valName] {
			return &CompileError{
				Field:   valPath,
				Message: fmt.Sprintf("duplicate value name %q", valName),
				Pos:     item.Pos(),
			}
		}
		names[valName] = true

		raw := item.LookupPath(cue.ParsePath("value"))
		if !raw.Exists() {
			return &CompileError{Field: valPath + ".value", Message: "value is required", Pos: item.Pos()}
		}

		var val ir.PrimitiveValue
		if isSet {
			val, err = parseBitIndex(raw, pt, valPath)
		} else {
			val, err = parseValue(raw, pt, valPath+".value")
		}
		if err != nil {
			return err
		}

		valDesc, err := optionalString(item, "description")
		if err != nil {
			return err
		}
		e.values = append(e.values, namedValue{name: valName, description: valDesc, value: val})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(e.values) == 0 {
		return nil, &CompileError{
			Field:   path + "." + listKey,
			Message: fmt.Sprintf("at least one entry in %s is required", listKey),
			Pos:     v.Pos(),
		}
	}
	return e, nil
}

// parseBitIndex reads a choice position. It must address a bit inside the
// set's encoding.
func parseBitIndex(v cue.Value, pt ir.PrimitiveType, path string) (ir.PrimitiveValue, error) {
	bit, err := v.Uint64()
	if err != nil {
		return nil, &CompileError{Field: path + ".value", Message: "choice value must be a bit index", Pos: v.Pos()}
	}
	if bit >= uint64(pt.Size())*8 {
		return nil, &CompileError{
			Field:   path + ".value",
			Message: fmt.Sprintf("bit %d does not fit in %s", bit, pt),
			Pos:     v.Pos(),
		}
	}
	return ir.UintValue(bit), nil
}

func parseComposite(name string, v cue.Value, path string) (*compositeType, error) {
	desc, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}
	comp := &compositeType{name: name, description: desc}

	err = eachListItem(v, "encodings", func(item cue.Value) error {
		memberName, err := requireString(item, "name", path+".encodings")
		if err != nil {
			return err
		}
		memberPath := path + "." + memberName
		typeName, err := requireString(item, "type", memberPath)
		if err != nil {
			return err
		}
		pt, err := ir.LookupPrimitiveType(typeName)
		if err != nil {
			return wrapTokenError(err, memberPath+".type", item.Pos())
		}
		constraints, err := parseConstraints(item, pt, memberPath)
		if err != nil {
			return err
		}

		size := pt.Size()
		variable, err := optionalBool(item, "variable")
		if err != nil {
			return err
		}
		switch {
		case variable:
			size = ir.VariableSize
		case constraints.Presence() == ir.PresenceConstant:
			size = 0
		}

		comp.members = append(comp.members, member{
			name:        memberName,
			primitive:   pt,
			size:        size,
			constraints: constraints,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(comp.members) == 0 {
		return nil, &CompileError{
			Field:   path + ".encodings",
			Message: "a composite needs at least one encoding",
			Pos:     v.Pos(),
		}
	}
	return comp, nil
}

// headerConstraints reads the presence, semanticType and description of a
// message, field, group or data entry. Constant presence is only accepted
// where constantOK is set, i.e. on a field of primitive type.
func headerConstraints(v cue.Value, path string, constantOK bool) (*ir.Constraints, error) {
	var opts []ir.ConstraintOption

	presence, err := optionalString(v, "presence")
	if err != nil {
		return nil, err
	}
	if presence != "" {
		p, err := ir.LookupPresence(presence)
		if err != nil {
			return nil, &CompileError{Field: path + ".presence", Message: err.Error(), Pos: v.Pos()}
		}
		if p == ir.PresenceConstant && !constantOK {
			return nil, &CompileError{
				Field:   path + ".presence",
				Message: "constant presence requires a primitive type",
				Pos:     v.LookupPath(cue.ParsePath("presence")).Pos(),
			}
		}
		// A constant's value lives on its encoding.
		if p == ir.PresenceOptional {
			opts = append(opts, ir.WithPresence(p))
		}
	}

	semanticType, err := optionalString(v, "semanticType")
	if err != nil {
		return nil, err
	}
	desc, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}
	opts = append(opts, ir.WithSemanticType(semanticType), ir.WithDescription(desc))

	c, err := ir.NewConstraints(opts...)
	if err != nil {
		return nil, wrapTokenError(err, path, v.Pos())
	}
	return c, nil
}

// parseConstraints reads the encoding constraints of a primitive field or
// composite member. A "constant" value implies constant presence.
func parseConstraints(v cue.Value, pt ir.PrimitiveType, path string) (*ir.Constraints, error) {
	var opts []ir.ConstraintOption

	presence, err := optionalString(v, "presence")
	if err != nil {
		return nil, err
	}
	if presence != "" {
		p, err := ir.LookupPresence(presence)
		if err != nil {
			return nil, &CompileError{Field: path + ".presence", Message: err.Error(), Pos: v.Pos()}
		}
		opts = append(opts, ir.WithPresence(p))
	}

	constVal := v.LookupPath(cue.ParsePath("constant"))
	if constVal.Exists() {
		if presence != "" && presence != ir.PresenceConstant.String() {
			return nil, &CompileError{
				Field:   path + ".constant",
				Message: fmt.Sprintf("constant value conflicts with presence %q", presence),
				Pos:     constVal.Pos(),
			}
		}
		val, err := parseValue(constVal, pt, path+".constant")
		if err != nil {
			return nil, err
		}
		opts = append(opts, ir.WithPresence(ir.PresenceConstant), ir.WithConstantValue(val))
	}

	bounds := []struct {
		key string
		set func(ir.PrimitiveValue) ir.ConstraintOption
	}{
		{"minValue", ir.WithMinValue},
		{"maxValue", ir.WithMaxValue},
		{"nullValue", ir.WithNullValue},
	}
	for _, bound := range bounds {
		raw := v.LookupPath(cue.ParsePath(bound.key))
		if !raw.Exists() {
			continue
		}
		val, err := parseValue(raw, pt, path+"."+bound.key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bound.set(val))
	}

	semanticType, err := optionalString(v, "semanticType")
	if err != nil {
		return nil, err
	}
	opts = append(opts, ir.WithSemanticType(semanticType))

	c, err := ir.NewConstraints(opts...)
	if err != nil {
		return nil, wrapTokenError(err, path, v.Pos())
	}
	return c, nil
}

// parseValue reads a constraint value of the given primitive type and
// checks it against the type's range. Char values may be written as a
// one-character string.
func parseValue(v cue.Value, pt ir.PrimitiveType, path string) (ir.PrimitiveValue, error) {
	var (
		val ir.PrimitiveValue
		err error
	)

	switch {
	case pt == ir.Char:
		if s, strErr := v.String(); strErr == nil {
			if len(s) != 1 {
				return nil, &CompileError{Field: path, Message: fmt.Sprintf("char value %q must be one byte", s), Pos: v.Pos()}
			}
			val = ir.CharValue(s[0])
			break
		}
		var n uint64
		if n, err = v.Uint64(); err == nil {
			if n > 0xff {
				return nil, &CompileError{Field: path, Message: fmt.Sprintf("char value %d exceeds one byte", n), Pos: v.Pos()}
			}
			val = ir.CharValue(byte(n))
		}
	case pt.IsFloat():
		var f float64
		if f, err = v.Float64(); err == nil {
			val = ir.FloatValue(f)
		}
	case pt.IsSigned():
		var n int64
		if n, err = v.Int64(); err == nil {
			val = ir.IntValue(n)
		}
	default:
		var n uint64
		if n, err = v.Uint64(); err == nil {
			val = ir.UintValue(n)
		}
	}
	if err != nil {
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("not a valid %s value: %v", pt, err),
			Pos:     v.Pos(),
		}
	}

	if !pt.Fits(val) {
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("value %s out of range for %s", val, pt),
			Pos:     v.Pos(),
		}
	}
	return val, nil
}

func requireString(v cue.Value, key, path string) (string, error) {
	field := v.LookupPath(cue.ParsePath(key))
	if !field.Exists() {
		return "", &CompileError{Field: path + "." + key, Message: key + " is required", Pos: v.Pos()}
	}
	s, err := field.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Field: path + "." + key, Message: key + " must be non-empty", Pos: field.Pos()}
	}
	return s, nil
}

func requireInt(v cue.Value, key, path string) (int64, error) {
	field := v.LookupPath(cue.ParsePath(key))
	if !field.Exists() {
		return 0, &CompileError{Field: path + "." + key, Message: key + " is required", Pos: v.Pos()}
	}
	n, err := field.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optionalString(v cue.Value, key string) (string, error) {
	field := v.LookupPath(cue.ParsePath(key))
	if !field.Exists() {
		return "", nil
	}
	s, err := field.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, key string) (bool, error) {
	field := v.LookupPath(cue.ParsePath(key))
	if !field.Exists() {
		return false, nil
	}
	b, err := field.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// eachListItem calls fn for each element of the optional list at key.
func eachListItem(v cue.Value, key string, fn func(cue.Value) error) error {
	list := v.LookupPath(cue.ParsePath(key))
	if !list.Exists() {
		return nil
	}
	iter, err := list.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// eachStructField calls fn for each field of the optional struct at key,
// in declaration order.
func eachStructField(v cue.Value, key string, fn func(string, cue.Value) error) error {
	s := v.LookupPath(cue.ParsePath(key))
	if !s.Exists() {
		return nil
	}
	iter, err := s.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}
