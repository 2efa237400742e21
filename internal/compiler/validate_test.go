package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/msgir/internal/ir"
	tu "github.com/roach88/msgir/internal/testutil"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateCarSchema(t *testing.T) {
	schema, err := compileString(t, carSchema)
	require.NoError(t, err)
	assert.Empty(t, Validate(schema))
}

func TestValidateSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []string
		field string
	}{
		{
			name:  "negative field id",
			src:   `message: M: {id: 1, fields: [{name: "a", id: -3, type: "int8"}]}`,
			codes: []string{ErrNegativeID},
			field: "message.M.a.id",
		},
		{
			name:  "empty message",
			src:   `message: M: {id: 1}`,
			codes: []string{ErrEmptyMessage},
			field: "message.M",
		},
		{
			name: "empty group",
			src: `message: M: {
				id: 1
				fields: [{name: "a", id: 1, type: "int8"}]
				groups: [{name: "g", id: 2}]
			}`,
			codes: []string{ErrEmptyMessage},
			field: "message.M.g",
		},
		{
			name: "duplicate field id",
			src: `message: M: {id: 1, fields: [
				{name: "a", id: 1, type: "int8"},
				{name: "b", id: 1, type: "int8"},
			]}`,
			codes: []string{ErrDuplicateID},
			field: "message.M.b.id",
		},
		{
			name: "duplicate field name",
			src: `message: M: {id: 1, fields: [
				{name: "a", id: 1, type: "int8"},
				{name: "a", id: 2, type: "int8"},
			]}`,
			codes: []string{ErrDuplicateName},
			field: "message.M.a",
		},
		{
			name: "duplicate message id",
			src: `
				message: A: {id: 7, fields: [{name: "a", id: 1, type: "int8"}]}
				message: B: {id: 7, fields: [{name: "a", id: 1, type: "int8"}]}`,
			codes: []string{ErrDuplicateID},
			field: "message.B.id",
		},
		{
			name: "group id clashes with field id",
			src: `message: M: {
				id: 1
				fields: [{name: "a", id: 1, type: "int8"}]
				groups: [{name: "g", id: 1, fields: [{name: "x", id: 1, type: "int8"}]}]
			}`,
			codes: []string{ErrDuplicateID},
			field: "message.M.g.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := compileString(t, tt.src)
			require.NoError(t, err)

			errs := Validate(schema)
			assert.Equal(t, tt.codes, codes(errs))
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	schema, err := compileString(t, `
		message: A: {id: 1}
		message: B: {id: 1, fields: [
			{name: "a", id: -1, type: "int8"},
			{name: "a", id: 2, type: "int8"},
		]}`)
	require.NoError(t, err)

	errs := Validate(schema)
	assert.Equal(t, []string{ErrEmptyMessage, ErrDuplicateID, ErrNegativeID, ErrDuplicateName}, codes(errs))
}

func TestValidateGroupScopesAreSeparate(t *testing.T) {
	schema, err := compileString(t, `message: M: {
		id: 1
		fields: [{name: "a", id: 1, type: "int8"}]
		groups: [
			{name: "g", id: 2, fields: [{name: "a", id: 1, type: "int8"}]},
			{name: "h", id: 3, fields: [{name: "a", id: 1, type: "int8"}]},
		]
	}`)
	require.NoError(t, err)
	assert.Empty(t, Validate(schema))
}

func TestValidateStructure(t *testing.T) {
	schema := &Schema{
		ByteOrder: ir.LittleEndian,
		Messages: []Message{{
			Name: "Broken",
			ID:   1,
			Tokens: ir.NewSequence(
				tu.Delim(ir.BeginMessage, "Broken", 1),
				tu.Delim(ir.BeginField, "a", 1),
			),
		}},
	}

	errs := Validate(schema)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrStructure, errs[0].Code)
	assert.Equal(t, "message.Broken", errs[0].Field)
	assert.Contains(t, errs[0].Message, "never closed")
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "message.M", Message: "boom", Code: ErrEmptyMessage}
	assert.Equal(t, "[E102] message.M: boom", err.Error())

	err.Line = 4
	assert.Equal(t, "[E102] line 4: message.M: boom", err.Error())
}
