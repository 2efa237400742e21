package ir

import (
	"encoding/json"
	"iter"
	"strings"
)

// Sequence is an immutable ordered list of Tokens: the sole carrier of a
// schema tree. Order is pre-order of the tree with children in declaration
// order. The zero value is an empty sequence.
//
// Sequences are safe for concurrent reads. Transformations build new ones.
type Sequence struct {
	tokens []Token
}

// NewSequence copies tokens into a new Sequence.
func NewSequence(tokens ...Token) Sequence {
	return Sequence{tokens: append([]Token(nil), tokens...)}
}

// Len returns the number of tokens.
func (s Sequence) Len() int { return len(s.tokens) }

// At returns the token at index i. Panics if i is out of range.
func (s Sequence) At(i int) Token { return s.tokens[i] }

// All iterates index/token pairs in order.
func (s Sequence) All() iter.Seq2[int, Token] {
	return func(yield func(int, Token) bool) {
		for i, tok := range s.tokens {
			if !yield(i, tok) {
				return
			}
		}
	}
}

// Tokens returns a copy of the underlying tokens.
func (s Sequence) Tokens() []Token {
	return append([]Token(nil), s.tokens...)
}

// Equal reports whether both sequences hold equal tokens in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	for i := range s.tokens {
		if !s.tokens[i].Equal(other.tokens[i]) {
			return false
		}
	}
	return true
}

// Map returns a new sequence with fn applied to every token.
// fn receives the index so passes can consult neighbours through s.
func (s Sequence) Map(fn func(i int, tok Token) Token) Sequence {
	out := make([]Token, len(s.tokens))
	for i, tok := range s.tokens {
		out[i] = fn(i, tok)
	}
	return Sequence{tokens: out}
}

// FindEnd returns the index of the END token matching the BEGIN token at
// index begin. Returns false if s[begin] is not a BEGIN or has no match.
func (s Sequence) FindEnd(begin int) (int, bool) {
	if begin < 0 || begin >= len(s.tokens) {
		return 0, false
	}
	want, ok := s.tokens[begin].signal.Closing()
	if !ok {
		return 0, false
	}
	open := s.tokens[begin].signal
	depth := 0
	for i := begin + 1; i < len(s.tokens); i++ {
		switch s.tokens[i].signal {
		case open:
			depth++
		case want:
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

// Span returns the sub-sequence from the BEGIN token at index begin up to
// and including its matching END.
func (s Sequence) Span(begin int) (Sequence, bool) {
	end, ok := s.FindEnd(begin)
	if !ok {
		return Sequence{}, false
	}
	return NewSequence(s.tokens[begin : end+1]...), true
}

// Depths returns the nesting depth of every token. BEGIN and END tokens of
// an entity share the depth of its parent's children.
func (s Sequence) Depths() []int {
	depths := make([]int, len(s.tokens))
	depth := 0
	for i, tok := range s.tokens {
		if tok.signal.IsEnd() && depth > 0 {
			depth--
		}
		depths[i] = depth
		if tok.signal.IsBegin() {
			depth++
		}
	}
	return depths
}

// String renders one token per line, indented two spaces per nesting level.
func (s Sequence) String() string {
	var b strings.Builder
	for i, depth := range s.Depths() {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s.tokens[i].String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Views returns the serializable form of every token.
func (s Sequence) Views() []TokenView {
	views := make([]TokenView, len(s.tokens))
	for i, tok := range s.tokens {
		views[i] = tok.View()
	}
	return views
}

// SequenceFromViews rebuilds a sequence through the token constructors.
func SequenceFromViews(views []TokenView) (Sequence, error) {
	var b Builder
	for _, v := range views {
		tok, err := v.FromView()
		if err != nil {
			return Sequence{}, err
		}
		b.Append(tok)
	}
	return b.Build(), nil
}

// MarshalJSON encodes the sequence as an array of token views.
func (s Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Views())
}

// UnmarshalJSON decodes an array of token views.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var views []TokenView
	if err := json.Unmarshal(data, &views); err != nil {
		return err
	}
	seq, err := SequenceFromViews(views)
	if err != nil {
		return err
	}
	*s = seq
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Sequence) MarshalYAML() (any, error) {
	return s.Views(), nil
}

// Builder is an append-only buffer used by producers. It is owned by a
// single goroutine until Build hands the tokens off.
type Builder struct {
	tokens []Token
}

// Append adds tokens to the end of the in-progress sequence.
func (b *Builder) Append(tokens ...Token) {
	b.tokens = append(b.tokens, tokens...)
}

// Len returns the number of tokens appended so far.
func (b *Builder) Len() int { return len(b.tokens) }

// Build returns the completed Sequence and resets the builder. The builder
// may be reused; it never aliases a returned Sequence.
func (b *Builder) Build() Sequence {
	seq := Sequence{tokens: b.tokens}
	b.tokens = nil
	return seq
}
