package ir

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes IR construction and validation failures.
type ErrorKind string

const (
	// KindMissingRequiredField indicates a constructor received an unset value
	// for a field its form requires.
	KindMissingRequiredField ErrorKind = "MISSING_REQUIRED_FIELD"

	// KindInvalidConstraintRange indicates minValue exceeds maxValue or a
	// constraint value does not fit the primitive type.
	KindInvalidConstraintRange ErrorKind = "INVALID_CONSTRAINT_RANGE"

	// KindUnknownPrimitiveType indicates a lookup by an unrecognized name.
	KindUnknownPrimitiveType ErrorKind = "UNKNOWN_PRIMITIVE_TYPE"

	// KindUnbalancedDelimiter indicates an END without a matching open BEGIN.
	KindUnbalancedDelimiter ErrorKind = "UNBALANCED_DELIMITER"

	// KindUnclosedDelimiter indicates a BEGIN still open at end of sequence.
	KindUnclosedDelimiter ErrorKind = "UNCLOSED_DELIMITER"

	// KindMisplacedLeafToken indicates a leaf outside an allowed parent.
	KindMisplacedLeafToken ErrorKind = "MISPLACED_LEAF_TOKEN"
)

// Sentinel errors, one per kind. Detailed errors unwrap to these so callers
// can use errors.Is regardless of the concrete type.
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidConstraintRange = errors.New("invalid constraint range")
	ErrUnknownPrimitiveType   = errors.New("unknown primitive type")
	ErrUnbalancedDelimiter    = errors.New("unbalanced delimiter")
	ErrUnclosedDelimiter      = errors.New("unclosed delimiter")
	ErrMisplacedLeafToken     = errors.New("misplaced leaf token")
)

var kindSentinels = map[ErrorKind]error{
	KindMissingRequiredField:   ErrMissingRequiredField,
	KindInvalidConstraintRange: ErrInvalidConstraintRange,
	KindUnknownPrimitiveType:   ErrUnknownPrimitiveType,
	KindUnbalancedDelimiter:    ErrUnbalancedDelimiter,
	KindUnclosedDelimiter:      ErrUnclosedDelimiter,
	KindMisplacedLeafToken:     ErrMisplacedLeafToken,
}

// Sentinel returns the sentinel error for the kind, or nil for an unknown kind.
func (k ErrorKind) Sentinel() error {
	return kindSentinels[k]
}

// Error is a construction or lookup failure with the offending field.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Field names the offending field or identifier.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the sentinel for the error's kind.
func (e *Error) Unwrap() error {
	return e.Kind.Sentinel()
}

func missingField(field string) *Error {
	return &Error{
		Kind:    KindMissingRequiredField,
		Field:   field,
		Message: "value is required",
	}
}

// KindOf extracts the ErrorKind from any error in the chain.
// Returns "" when err carries no known kind.
func KindOf(err error) ErrorKind {
	var ke interface{ ErrorKind() ErrorKind }
	if errors.As(err, &ke) {
		return ke.ErrorKind()
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// ErrorKind reports the kind; used by KindOf.
func (e *Error) ErrorKind() ErrorKind {
	return e.Kind
}
