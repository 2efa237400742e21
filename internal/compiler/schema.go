package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/msgir/internal/ir"
)

// Schema is a compiled message schema: one token sequence per message, in
// declaration order.
type Schema struct {
	ByteOrder ir.ByteOrder
	Messages  []Message
}

// Message is the token sequence of one message, from BEGIN_MESSAGE to
// END_MESSAGE inclusive.
type Message struct {
	Name   string
	ID     int64
	Tokens ir.Sequence
	Pos    token.Pos
}

// Message returns the named message.
func (s *Schema) Message(name string) (Message, bool) {
	for _, m := range s.Messages {
		if m.Name == name {
			return m, true
		}
	}
	return Message{}, false
}

// Sequence concatenates every message into one sequence.
func (s *Schema) Sequence() ir.Sequence {
	var b ir.Builder
	for _, m := range s.Messages {
		b.Append(m.Tokens.Tokens()...)
	}
	return b.Build()
}

// Option configures CompileSchema.
type Option func(*options)

type options struct {
	byteOrder ir.ByteOrder
}

// WithByteOrder sets the byte order used when the schema declares none.
// The default is little endian.
func WithByteOrder(bo ir.ByteOrder) Option {
	return func(o *options) { o.byteOrder = bo }
}

// CompileSchema turns a CUE schema value into token sequences.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value holds an optional byteOrder, optional shared types and at
// least one message:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`message: Car: { id: 1, fields: [...] }`)
//	schema, err := CompileSchema(v)
//
// Offsets are left as ir.UnknownOffset for irpass.ResolveOffsets.
func CompileSchema(v cue.Value, opts ...Option) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	o := options{byteOrder: ir.LittleEndian}
	for _, opt := range opts {
		opt(&o)
	}

	c := &compiler{
		byteOrder:  o.byteOrder,
		composites: make(map[string]*compositeType),
		enums:      make(map[string]*enumType),
		sets:       make(map[string]*enumType),
	}

	boVal := v.LookupPath(cue.ParsePath("byteOrder"))
	if boVal.Exists() {
		name, err := boVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		bo, err := ir.LookupByteOrder(name)
		if err != nil {
			return nil, &CompileError{Field: "byteOrder", Message: err.Error(), Pos: boVal.Pos(), Err: err}
		}
		c.byteOrder = bo
	}

	if err := c.loadTypes(v.LookupPath(cue.ParsePath("types"))); err != nil {
		return nil, err
	}

	msgVal := v.LookupPath(cue.ParsePath("message"))
	if !msgVal.Exists() {
		return nil, &CompileError{
			Field:   "message",
			Message: "at least one message is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := msgVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	schema := &Schema{ByteOrder: c.byteOrder}
	for iter.Next() {
		msg, err := c.compileMessage(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		schema.Messages = append(schema.Messages, msg)
	}

	if len(schema.Messages) == 0 {
		return nil, &CompileError{
			Field:   "message",
			Message: "at least one message is required",
			Pos:     msgVal.Pos(),
		}
	}
	return schema, nil
}

type compiler struct {
	byteOrder  ir.ByteOrder
	composites map[string]*compositeType
	enums      map[string]*enumType
	sets       map[string]*enumType
}

func (c *compiler) compileMessage(name string, v cue.Value) (Message, error) {
	path := "message." + name

	id, err := requireInt(v, "id", path)
	if err != nil {
		return Message{}, err
	}
	header, err := headerConstraints(v, path, false)
	if err != nil {
		return Message{}, err
	}

	var b ir.Builder
	begin, err := ir.NewStructuralToken(ir.BeginMessage, name, id, header)
	if err != nil {
		return Message{}, wrapTokenError(err, path, v.Pos())
	}
	b.Append(begin)

	if err := c.emitBody(&b, v, path); err != nil {
		return Message{}, err
	}

	end, err := ir.NewDelimiter(ir.EndMessage, name, id)
	if err != nil {
		return Message{}, wrapTokenError(err, path, v.Pos())
	}
	b.Append(end)

	return Message{Name: name, ID: id, Tokens: b.Build(), Pos: v.Pos()}, nil
}

// emitBody emits fields, then groups, then var data, each in list order.
func (c *compiler) emitBody(b *ir.Builder, v cue.Value, path string) error {
	if err := eachListItem(v, "fields", func(item cue.Value) error {
		return c.emitField(b, item, path)
	}); err != nil {
		return err
	}
	if err := eachListItem(v, "groups", func(item cue.Value) error {
		return c.emitGroup(b, item, path)
	}); err != nil {
		return err
	}
	return eachListItem(v, "data", func(item cue.Value) error {
		return c.emitData(b, item, path)
	})
}

func (c *compiler) emitField(b *ir.Builder, v cue.Value, parent string) error {
	name, err := requireString(v, "name", parent+".fields")
	if err != nil {
		return err
	}
	path := parent + "." + name

	id, err := requireInt(v, "id", path)
	if err != nil {
		return err
	}
	typeName, err := requireString(v, "type", path)
	if err != nil {
		return err
	}
	pt, lookupErr := ir.LookupPrimitiveType(typeName)
	header, err := headerConstraints(v, path, lookupErr == nil)
	if err != nil {
		return err
	}

	begin, err := ir.NewStructuralToken(ir.BeginField, name, id, header)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	b.Append(begin.WithOffset(ir.UnknownOffset))

	if lookupErr == nil {
		if err := c.emitPrimitive(b, v, typeName, pt, path); err != nil {
			return err
		}
	} else if enum, ok := c.enums[typeName]; ok {
		if err := c.emitEnum(b, enum, ir.BeginEnum, ir.ValidValue, ir.EndEnum, header.Presence()); err != nil {
			return wrapTokenError(err, path, v.Pos())
		}
	} else if set, ok := c.sets[typeName]; ok {
		if err := c.emitEnum(b, set, ir.BeginSet, ir.Choice, ir.EndSet, header.Presence()); err != nil {
			return wrapTokenError(err, path, v.Pos())
		}
	} else if comp, ok := c.composites[typeName]; ok {
		if err := c.emitComposite(b, comp); err != nil {
			return wrapTokenError(err, path, v.Pos())
		}
	} else {
		return &CompileError{
			Field:   path + ".type",
			Message: fmt.Sprintf("unknown type %q", typeName),
			Pos:     v.LookupPath(cue.ParsePath("type")).Pos(),
		}
	}

	end, err := ir.NewDelimiter(ir.EndField, name, id)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	b.Append(end)
	return nil
}

// emitPrimitive emits the ENCODING of a primitive field. Constant fields
// take no space on the wire and encode with size 0.
func (c *compiler) emitPrimitive(b *ir.Builder, v cue.Value, typeName string, pt ir.PrimitiveType, path string) error {
	constraints, err := parseConstraints(v, pt, path)
	if err != nil {
		return err
	}
	size := pt.Size()
	if constraints.Presence() == ir.PresenceConstant {
		size = 0
	}
	tok, err := ir.NewToken(ir.Encoding, typeName, ir.InvalidID, pt, size, ir.UnknownOffset, c.byteOrder, constraints)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	b.Append(tok)
	return nil
}

// emitEnum emits an enum or a choice set: the delimiters, the underlying
// encoding, then one constant leaf per value.
func (c *compiler) emitEnum(b *ir.Builder, e *enumType, open, leaf, closeSig ir.Signal, presence ir.Presence) error {
	begin, err := ir.NewStructuralToken(open, e.name, ir.InvalidID, ir.MustConstraints(ir.WithDescription(e.description)))
	if err != nil {
		return err
	}
	b.Append(begin.WithOffset(ir.UnknownOffset))

	encConstraints := ir.MustConstraints()
	if presence == ir.PresenceOptional {
		encConstraints = ir.MustConstraints(ir.WithPresence(ir.PresenceOptional))
	}
	enc, err := ir.NewToken(ir.Encoding, e.encoding.String(), ir.InvalidID, e.encoding, e.encoding.Size(),
		ir.UnknownOffset, c.byteOrder, encConstraints)
	if err != nil {
		return err
	}
	b.Append(enc)

	for _, val := range e.values {
		vc, err := ir.NewConstraints(
			ir.WithPresence(ir.PresenceConstant),
			ir.WithConstantValue(val.value),
			ir.WithDescription(val.description),
		)
		if err != nil {
			return err
		}
		tok, err := ir.NewToken(leaf, val.name, ir.InvalidID, e.encoding, 0, ir.UnknownOffset, c.byteOrder, vc)
		if err != nil {
			return err
		}
		b.Append(tok)
	}

	end, err := ir.NewDelimiter(closeSig, e.name, ir.InvalidID)
	if err != nil {
		return err
	}
	b.Append(end)
	return nil
}

func (c *compiler) emitComposite(b *ir.Builder, comp *compositeType) error {
	begin, err := ir.NewStructuralToken(ir.BeginComposite, comp.name, ir.InvalidID,
		ir.MustConstraints(ir.WithDescription(comp.description)))
	if err != nil {
		return err
	}
	b.Append(begin.WithOffset(ir.UnknownOffset))

	for _, m := range comp.members {
		tok, err := ir.NewToken(ir.Encoding, m.name, ir.InvalidID, m.primitive, m.size, ir.UnknownOffset,
			c.byteOrder, m.constraints)
		if err != nil {
			return err
		}
		b.Append(tok)
	}

	end, err := ir.NewDelimiter(ir.EndComposite, comp.name, ir.InvalidID)
	if err != nil {
		return err
	}
	b.Append(end)
	return nil
}

func (c *compiler) emitGroup(b *ir.Builder, v cue.Value, parent string) error {
	name, err := requireString(v, "name", parent+".groups")
	if err != nil {
		return err
	}
	path := parent + "." + name

	id, err := requireInt(v, "id", path)
	if err != nil {
		return err
	}
	header, err := headerConstraints(v, path, false)
	if err != nil {
		return err
	}

	begin, err := ir.NewStructuralToken(ir.BeginGroup, name, id, header)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	b.Append(begin.WithOffset(ir.UnknownOffset))

	if err := c.emitBody(b, v, path); err != nil {
		return err
	}

	end, err := ir.NewDelimiter(ir.EndGroup, name, id)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	b.Append(end)
	return nil
}

// emitData emits a variable-length data field: a single uint8 encoding of
// ir.VariableSize.
func (c *compiler) emitData(b *ir.Builder, v cue.Value, parent string) error {
	name, err := requireString(v, "name", parent+".data")
	if err != nil {
		return err
	}
	path := parent + "." + name

	id, err := requireInt(v, "id", path)
	if err != nil {
		return err
	}
	header, err := headerConstraints(v, path, false)
	if err != nil {
		return err
	}

	begin, err := ir.NewStructuralToken(ir.BeginField, name, id, header)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	enc, err := ir.NewToken(ir.Encoding, ir.Uint8.String(), ir.InvalidID, ir.Uint8, ir.VariableSize,
		ir.UnknownOffset, c.byteOrder, ir.MustConstraints())
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	end, err := ir.NewDelimiter(ir.EndField, name, id)
	if err != nil {
		return wrapTokenError(err, path, v.Pos())
	}
	b.Append(begin.WithOffset(ir.UnknownOffset), enc, end)
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos

	// Err is the underlying IR error, if any.
	Err error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying IR error so errors.Is matches its kind.
func (e *CompileError) Unwrap() error {
	return e.Err
}

func wrapTokenError(err error, field string, pos token.Pos) error {
	return &CompileError{Field: field, Message: err.Error(), Pos: pos, Err: err}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
