// Package testutil provides token fixtures and deterministic id sources
// shared by tests across packages.
package testutil

import (
	"github.com/roach88/msgir/internal/ir"
)

// Delim builds a minimal-form token. Panics on invalid input.
func Delim(signal ir.Signal, name string, schemaID int64) ir.Token {
	return ir.MustToken(ir.NewDelimiter(signal, name, schemaID))
}

// Unplaced builds a minimal-form token whose offset is ir.UnknownOffset.
func Unplaced(signal ir.Signal, name string, schemaID int64) ir.Token {
	return Delim(signal, name, schemaID).WithOffset(ir.UnknownOffset)
}

// Enc builds a little-endian ENCODING token with unconstrained metadata.
// The size is the primitive's width; use EncSized for anything else.
func Enc(pt ir.PrimitiveType, offset int32) ir.Token {
	return EncSized(pt, pt.Size(), offset)
}

// EncSized builds a little-endian ENCODING token of the given size.
func EncSized(pt ir.PrimitiveType, size, offset int32) ir.Token {
	return ir.MustToken(ir.NewToken(ir.Encoding, pt.String(), ir.InvalidID, pt, size, offset,
		ir.LittleEndian, ir.MustConstraints()))
}

// EncWith builds a little-endian ENCODING token with constraints.
func EncWith(pt ir.PrimitiveType, offset int32, opts ...ir.ConstraintOption) ir.Token {
	return ir.MustToken(ir.NewToken(ir.Encoding, pt.String(), ir.InvalidID, pt, pt.Size(), offset,
		ir.LittleEndian, ir.MustConstraints(opts...)))
}

// Value builds a VALID_VALUE or CHOICE leaf carrying a constant.
func Value(signal ir.Signal, name string, pt ir.PrimitiveType, v ir.PrimitiveValue) ir.Token {
	c := ir.MustConstraints(ir.WithPresence(ir.PresenceConstant), ir.WithConstantValue(v))
	return ir.MustToken(ir.NewToken(signal, name, ir.InvalidID, pt, 0, ir.UnknownOffset, ir.LittleEndian, c))
}

// Field wraps inner tokens in BEGIN_FIELD/END_FIELD. The BEGIN is unplaced.
func Field(name string, schemaID int64, inner ...ir.Token) []ir.Token {
	out := []ir.Token{Unplaced(ir.BeginField, name, schemaID)}
	out = append(out, inner...)
	return append(out, Delim(ir.EndField, name, schemaID))
}

// Seq flattens token groups into a sequence.
func Seq(groups ...[]ir.Token) ir.Sequence {
	var b ir.Builder
	for _, g := range groups {
		b.Append(g...)
	}
	return b.Build()
}

// One lifts single tokens into a group for Seq.
func One(tokens ...ir.Token) []ir.Token {
	return tokens
}

// CarSequence returns an unresolved "Car" message exercising every signal:
//
//	serialNumber uint64
//	modelYear    uint16
//	available    enum BooleanType (uint8)
//	extras       set OptionalExtras (uint8)
//	engine       composite Engine { capacity uint16, numCylinders uint8 }
//	fuelFigures  group { speed uint16 }
//	make         var data
//
// All offsets except the message's are ir.UnknownOffset.
func CarSequence() ir.Sequence {
	return Seq(
		One(Delim(ir.BeginMessage, "Car", 1)),
		Field("serialNumber", 1, Enc(ir.Uint64, ir.UnknownOffset)),
		Field("modelYear", 2, Enc(ir.Uint16, ir.UnknownOffset)),
		Field("available", 3,
			Unplaced(ir.BeginEnum, "BooleanType", ir.InvalidID),
			Enc(ir.Uint8, ir.UnknownOffset),
			Value(ir.ValidValue, "F", ir.Uint8, ir.UintValue(0)),
			Value(ir.ValidValue, "T", ir.Uint8, ir.UintValue(1)),
			Delim(ir.EndEnum, "BooleanType", ir.InvalidID),
		),
		Field("extras", 4,
			Unplaced(ir.BeginSet, "OptionalExtras", ir.InvalidID),
			Enc(ir.Uint8, ir.UnknownOffset),
			Value(ir.Choice, "sunRoof", ir.Uint8, ir.UintValue(0)),
			Value(ir.Choice, "sportsPack", ir.Uint8, ir.UintValue(1)),
			Delim(ir.EndSet, "OptionalExtras", ir.InvalidID),
		),
		Field("engine", 5,
			Unplaced(ir.BeginComposite, "Engine", ir.InvalidID),
			Enc(ir.Uint16, ir.UnknownOffset),
			Enc(ir.Uint8, ir.UnknownOffset),
			Delim(ir.EndComposite, "Engine", ir.InvalidID),
		),
		One(Unplaced(ir.BeginGroup, "fuelFigures", 6)),
		Field("speed", 7, Enc(ir.Uint16, ir.UnknownOffset)),
		One(Delim(ir.EndGroup, "fuelFigures", 6)),
		Field("make", 8, EncSized(ir.Uint8, ir.VariableSize, ir.UnknownOffset)),
		One(Delim(ir.EndMessage, "Car", 1)),
	)
}
