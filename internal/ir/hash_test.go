package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceHashDeterminism(t *testing.T) {
	h1, err := SequenceHash(headerSequence(t))
	require.NoError(t, err)
	h2, err := SequenceHash(headerSequence(t))
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "SequenceHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestSequenceHashChangesWithContent(t *testing.T) {
	seq := headerSequence(t)
	base := MustSequenceHash(seq)

	moved := seq.Map(func(i int, tok Token) Token {
		if i == 2 {
			return tok.WithOffset(8)
		}
		return tok
	})
	relabeled := seq.Map(func(i int, tok Token) Token {
		if i == 0 {
			return tok.WithConstraints(MustConstraints(WithDescription("renamed")))
		}
		return tok
	})

	assert.NotEqual(t, base, MustSequenceHash(moved), "offset must affect hash")
	assert.NotEqual(t, base, MustSequenceHash(relabeled), "constraints must affect hash")
	assert.NotEqual(t, base, MustSequenceHash(Sequence{}))
}

func TestSequenceHashEmpty(t *testing.T) {
	assert.Equal(t, MustSequenceHash(Sequence{}), MustSequenceHash(NewSequence()))
}

func TestMarshalCanonicalToken(t *testing.T) {
	seq := NewSequence(
		MustToken(NewToken(Encoding, "int8", InvalidID, Int8, 1, 0, BigEndian,
			MustConstraints(WithMinValue(IntValue(-1))))),
	)

	data, err := MarshalCanonical(seq)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"byte_order":"BigEndian","constraints":{"min_value":"int:-1","presence":"required"},"name":"int8","offset":0,"primitive_type":"int8","schema_id":-1,"signal":"ENCODING","size":1}]`,
		string(data))
}

func TestMarshalCanonicalOmitsAbsentEncoding(t *testing.T) {
	seq := NewSequence(MustToken(NewDelimiter(BeginMessage, "Car", 1)))

	data, err := MarshalCanonical(seq)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"constraints":{"presence":"required"},"name":"Car","offset":0,"schema_id":1,"signal":"BEGIN_MESSAGE","size":0}]`,
		string(data))
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no HTML escaping", "<a&b>", `"<a&b>"`},
		{"NFC normalization", "e\u0301", "\"\u00e9\""},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash kept", `a\u2028b`, `"a\\u2028b"`},
		{"control escaped", "a\nb", `"a\nb"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalCanonicalString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestCompareKeysRFC8785(t *testing.T) {
	// U+FB01 sorts after U+1F600 in UTF-16 but before it in UTF-8.
	keys := []string{"\ufb01", "\U0001f600"}
	assert.Equal(t, -1, compareKeysRFC8785(keys[1], keys[0]))
	assert.True(t, strings.Compare(keys[0], keys[1]) < 0)
}
