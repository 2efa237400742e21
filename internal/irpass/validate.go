package irpass

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/msgir/internal/ir"
)

// StructuralError reports the first structural violation found in a
// sequence.
type StructuralError struct {
	// Kind is one of ir.KindUnbalancedDelimiter, ir.KindUnclosedDelimiter
	// or ir.KindMisplacedLeafToken.
	Kind ir.ErrorKind

	// Index is the position of the offending token. For an unclosed
	// delimiter it is the position of the BEGIN left open.
	Index int

	// Token is the offending token.
	Token ir.Token

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s at token %d (%s %q): %s",
		e.Kind, e.Index, e.Token.Signal(), e.Token.Name(), e.Message)
}

// Unwrap returns the sentinel for the error's kind so errors.Is matches
// ir.ErrUnbalancedDelimiter and friends.
func (e *StructuralError) Unwrap() error {
	return e.Kind.Sentinel()
}

// ErrorKind reports the kind; used by ir.KindOf.
func (e *StructuralError) ErrorKind() ir.ErrorKind {
	return e.Kind
}

// IsStructuralError returns true if err carries a StructuralError.
// Uses errors.As to handle wrapped errors.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// leafParents lists the BEGIN signals each leaf may appear directly under.
var leafParents = map[ir.Signal][]ir.Signal{
	ir.Encoding:   {ir.BeginField, ir.BeginComposite, ir.BeginEnum, ir.BeginSet},
	ir.ValidValue: {ir.BeginEnum},
	ir.Choice:     {ir.BeginSet},
}

type openEntry struct {
	signal ir.Signal
	index  int
}

// Validate checks that every END closes the most recent open BEGIN of the
// same kind, that every BEGIN is closed, and that each leaf sits directly
// inside an allowed parent. It returns the first violation as a
// *StructuralError, or nil.
//
// Validate does not check schema id uniqueness; that belongs to producers.
func Validate(seq ir.Sequence) error {
	var stack []openEntry

	for i, tok := range seq.All() {
		sig := tok.Signal()
		switch {
		case sig.IsBegin():
			stack = append(stack, openEntry{signal: sig, index: i})

		case sig.IsEnd():
			want, _ := sig.Opening()
			if len(stack) == 0 {
				return &StructuralError{
					Kind:    ir.KindUnbalancedDelimiter,
					Index:   i,
					Token:   tok,
					Message: fmt.Sprintf("%s with no open %s", sig, want),
				}
			}
			top := stack[len(stack)-1]
			if top.signal != want {
				return &StructuralError{
					Kind:    ir.KindUnbalancedDelimiter,
					Index:   i,
					Token:   tok,
					Message: fmt.Sprintf("%s closes %s opened at token %d", sig, top.signal, top.index),
				}
			}
			stack = stack[:len(stack)-1]

		case sig.IsLeaf():
			if len(stack) == 0 {
				return &StructuralError{
					Kind:    ir.KindMisplacedLeafToken,
					Index:   i,
					Token:   tok,
					Message: fmt.Sprintf("%s outside any entity", sig),
				}
			}
			parent := stack[len(stack)-1].signal
			if !slices.Contains(leafParents[sig], parent) {
				return &StructuralError{
					Kind:    ir.KindMisplacedLeafToken,
					Index:   i,
					Token:   tok,
					Message: fmt.Sprintf("%s not allowed directly inside %s", sig, parent),
				}
			}
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return &StructuralError{
			Kind:    ir.KindUnclosedDelimiter,
			Index:   top.index,
			Token:   seq.At(top.index),
			Message: fmt.Sprintf("%s never closed", top.signal),
		}
	}
	return nil
}
