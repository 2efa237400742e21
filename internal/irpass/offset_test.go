package irpass

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/msgir/internal/ir"
	tu "github.com/roach88/msgir/internal/testutil"
)

func offsets(seq ir.Sequence) []int32 {
	out := make([]int32, seq.Len())
	for i, tok := range seq.All() {
		out[i] = tok.Offset()
	}
	return out
}

func TestResolveOffsetsSequential(t *testing.T) {
	seq := ir.NewSequence(
		tu.Delim(ir.BeginMessage, "M", 1),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.Delim(ir.EndMessage, "M", 1),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.At(1).Offset())
	assert.Equal(t, int32(4), got.At(2).Offset())

	again, err := ResolveOffsets(got)
	require.NoError(t, err)
	assert.True(t, got.Equal(again), "resolution must be idempotent")

	assert.Equal(t, ir.UnknownOffset, seq.At(1).Offset(), "input must be unchanged")
}

func TestResolveOffsetsVariableSize(t *testing.T) {
	seq := tu.Seq(
		tu.One(tu.Delim(ir.BeginMessage, "M", 1)),
		tu.Field("id", 1, tu.Enc(ir.Uint32, ir.UnknownOffset)),
		tu.Field("name", 2, tu.EncSized(ir.Uint8, ir.VariableSize, ir.UnknownOffset)),
		tu.Field("after", 3, tu.Enc(ir.Uint16, ir.UnknownOffset)),
		tu.Field("last", 4, tu.Enc(ir.Uint16, ir.UnknownOffset)),
		tu.One(tu.Delim(ir.EndMessage, "M", 1)),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)

	assert.Equal(t, int32(0), got.At(2).Offset())
	assert.Equal(t, int32(4), got.At(5).Offset(), "variable data starts where it begins")
	for _, i := range []int{7, 8, 10, 11} {
		assert.Equal(t, ir.UnknownOffset, got.At(i).Offset(), "token %d", i)
	}

	again, err := ResolveOffsets(got)
	require.NoError(t, err)
	assert.True(t, got.Equal(again))
}

func TestResolveOffsetsCar(t *testing.T) {
	got, err := ResolveOffsets(tu.CarSequence())
	require.NoError(t, err)

	want := []int32{
		0,
		// serialNumber
		0, 0, 0,
		// modelYear
		8, 8, 0,
		// available enum
		10, 10, 10, 10, 10, 0, 0,
		// extras set
		11, 11, 11, 11, 11, 0, 0,
		// engine composite
		12, 12, 0, 2, 0, 0,
		// fuelFigures group
		15, 0, 0, 0, 0,
		// make var data
		ir.UnknownOffset, ir.UnknownOffset, 0,
		0,
	}
	assert.Equal(t, want, offsets(got))

	again, err := ResolveOffsets(got)
	require.NoError(t, err)
	assert.True(t, got.Equal(again))
}

func TestResolveOffsetsExplicitOffsetAnchors(t *testing.T) {
	seq := ir.NewSequence(
		tu.Delim(ir.BeginMessage, "M", 1),
		tu.Delim(ir.BeginField, "a", 1),
		tu.Enc(ir.Uint8, ir.UnknownOffset),
		tu.Delim(ir.EndField, "a", 1),
		tu.Delim(ir.BeginField, "b", 2),
		tu.Enc(ir.Uint32, 4),
		tu.Delim(ir.EndField, "b", 2),
		tu.Delim(ir.BeginField, "c", 3),
		tu.Enc(ir.Uint8, ir.UnknownOffset),
		tu.Delim(ir.EndField, "c", 3),
		tu.Delim(ir.EndMessage, "M", 1),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.At(2).Offset())
	assert.Equal(t, int32(4), got.At(5).Offset())
	assert.Equal(t, int32(8), got.At(8).Offset(), "padding before b is kept")
}

func TestResolveOffsetsGroupFrame(t *testing.T) {
	seq := tu.Seq(
		tu.One(tu.Delim(ir.BeginMessage, "M", 1)),
		tu.Field("head", 1, tu.Enc(ir.Uint16, ir.UnknownOffset)),
		tu.One(tu.Unplaced(ir.BeginGroup, "entries", 2)),
		tu.Field("x", 3, tu.Enc(ir.Int64, ir.UnknownOffset)),
		tu.Field("y", 4, tu.Enc(ir.Int64, ir.UnknownOffset)),
		tu.One(tu.Delim(ir.EndGroup, "entries", 2)),
		tu.Field("tail", 5, tu.Enc(ir.Uint16, ir.UnknownOffset)),
		tu.One(tu.Delim(ir.EndMessage, "M", 1)),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)

	assert.Equal(t, int32(2), got.At(4).Offset(), "group starts after head")
	assert.Equal(t, int32(0), got.At(6).Offset(), "group content starts a new frame")
	assert.Equal(t, int32(8), got.At(9).Offset())
	assert.Equal(t, ir.UnknownOffset, got.At(13).Offset(), "fields after a group are unknown")
}

func TestResolveOffsetsVariableComposite(t *testing.T) {
	seq := tu.Seq(
		tu.One(tu.Delim(ir.BeginMessage, "M", 1)),
		tu.Field("blob", 1,
			tu.Unplaced(ir.BeginComposite, "varString", ir.InvalidID),
			tu.Enc(ir.Uint32, ir.UnknownOffset),
			tu.EncSized(ir.Uint8, ir.VariableSize, ir.UnknownOffset),
			tu.Delim(ir.EndComposite, "varString", ir.InvalidID),
		),
		tu.Field("after", 2, tu.Enc(ir.Uint8, ir.UnknownOffset)),
		tu.One(tu.Delim(ir.EndMessage, "M", 1)),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)

	assert.Equal(t, int32(0), got.At(3).Offset())
	assert.Equal(t, int32(4), got.At(4).Offset())
	assert.Equal(t, ir.UnknownOffset, got.At(8).Offset())
}

func TestResolveOffsetsSeparateMessages(t *testing.T) {
	msg := func(name string) []ir.Token {
		return tu.Seq(
			tu.One(tu.Delim(ir.BeginMessage, name, 1)),
			tu.Field("f", 1, tu.Enc(ir.Int64, ir.UnknownOffset)),
			tu.One(tu.Delim(ir.EndMessage, name, 1)),
		).Tokens()
	}

	got, err := ResolveOffsets(tu.Seq(msg("A"), msg("B")))
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.At(2).Offset())
	assert.Equal(t, int32(0), got.At(7).Offset(), "each message starts at zero")
}

func TestResolveOffsetsToleratesUnmatchedEnds(t *testing.T) {
	seq := ir.NewSequence(
		tu.Delim(ir.EndMessage, "X", 1),
		tu.Delim(ir.BeginMessage, "M", 1),
		tu.Delim(ir.EndGroup, "g", 2),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.Delim(ir.EndMessage, "M", 1),
		tu.Delim(ir.EndMessage, "M", 1),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.At(3).Offset())
	assert.Equal(t, int32(4), got.At(4).Offset())
}

func TestResolveOffsetsOverflow(t *testing.T) {
	seq := ir.NewSequence(
		tu.Delim(ir.BeginMessage, "M", 1),
		tu.EncSized(ir.Uint8, math.MaxInt32, ir.UnknownOffset),
		tu.EncSized(ir.Uint8, math.MaxInt32, ir.UnknownOffset),
		tu.EncSized(ir.Uint8, 1, ir.UnknownOffset),
		tu.Delim(ir.EndMessage, "M", 1),
	)

	_, err := ResolveOffsets(seq)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOffsetOverflow)
	assert.Contains(t, err.Error(), "token 3")
}

func TestResolveOffsetsReducedFormComposite(t *testing.T) {
	seq := ir.NewSequence(
		tu.Delim(ir.BeginMessage, "M", 1),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.Delim(ir.BeginComposite, "pair", ir.InvalidID),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.Delim(ir.EndComposite, "pair", ir.InvalidID),
		tu.EncSized(ir.Int32, 4, ir.UnknownOffset),
		tu.Delim(ir.EndMessage, "M", 1),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.At(1).Offset())
	assert.Equal(t, int32(4), got.At(2).Offset(), "composite starts after the first encoding")
	assert.Equal(t, int32(0), got.At(3).Offset(), "composite content starts a new frame")
	assert.Equal(t, int32(8), got.At(5).Offset(), "no overlap with the composite")

	again, err := ResolveOffsets(got)
	require.NoError(t, err)
	assert.True(t, got.Equal(again))
}

func TestResolveOffsetsReducedFormField(t *testing.T) {
	header := ir.MustToken(ir.NewStructuralToken(ir.BeginField, "b", 2,
		ir.MustConstraints(ir.WithDescription("second"))))
	seq := ir.NewSequence(
		tu.Delim(ir.BeginMessage, "M", 1),
		tu.Delim(ir.BeginField, "a", 1),
		tu.Enc(ir.Uint16, ir.UnknownOffset),
		tu.Delim(ir.EndField, "a", 1),
		header,
		tu.Enc(ir.Uint16, ir.UnknownOffset),
		tu.Delim(ir.EndField, "b", 2),
		tu.Delim(ir.EndMessage, "M", 1),
	)

	got, err := ResolveOffsets(seq)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.At(1).Offset())
	assert.Equal(t, int32(2), got.At(4).Offset())
	assert.Equal(t, int32(2), got.At(5).Offset())
}
