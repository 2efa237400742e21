package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/msgir/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the message trace to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Trace    string // Rendered message, if one was involved
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Trace != "" {
		fmt.Fprintf(&buf, "\nMessage:\n%s", e.Trace)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertCompileError:
		return assertCompileError(result, a)
	case AssertValidationError:
		return assertValidationError(result, a)
	}

	msg, ok := result.Message(a.Message)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("message %s", a.Message),
			Actual:   describeFailure(result),
		}
	}

	if a.Type == AssertTokenCount {
		if len(msg.Tokens) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d token(s)", a.Count),
				Actual:   fmt.Sprintf("%d token(s)", len(msg.Tokens)),
				Trace:    RenderTrace(msg.seq),
			}
		}
		return nil
	}

	if a.Index >= len(msg.Tokens) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("token %d", a.Index),
			Actual:   fmt.Sprintf("%d token(s)", len(msg.Tokens)),
			Trace:    RenderTrace(msg.seq),
		}
	}
	tok := msg.Tokens[a.Index]

	var expected, actual string
	switch a.Type {
	case AssertSignal:
		expected, actual = a.Signal, tok.Signal
	case AssertOffset:
		expected, actual = fmt.Sprint(a.Offset), fmt.Sprint(tok.Offset)
	case AssertNullValue:
		expected, actual = quoteOrNone(a.Value), quoteOrNone(tok.Constraints.NullValue)
	}
	if expected != actual {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("token %d: %s", a.Index, expected),
			Actual:   fmt.Sprintf("token %d: %s", a.Index, actual),
			Trace:    RenderTrace(msg.seq),
		}
	}
	return nil
}

func assertCompileError(result *Result, a Assertion) error {
	if result.CompileError == "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("compile error containing %q", a.Contains),
			Actual:   "schema compiled",
		}
	}
	if !strings.Contains(result.CompileError, a.Contains) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("compile error containing %q", a.Contains),
			Actual:   result.CompileError,
		}
	}
	return nil
}

func assertValidationError(result *Result, a Assertion) error {
	if !slices.Contains(result.ValidationCodes, a.Code) {
		actual := "no validation errors"
		if len(result.ValidationCodes) > 0 {
			actual = strings.Join(result.ValidationCodes, ", ")
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("validation error %s", a.Code),
			Actual:   actual,
		}
	}
	return nil
}

func describeFailure(result *Result) string {
	switch {
	case result.CompileError != "":
		return "schema did not compile: " + result.CompileError
	case len(result.ValidationCodes) > 0:
		return "schema failed validation: " + strings.Join(result.ValidationCodes, ", ")
	}
	return "no such message"
}

func quoteOrNone(s string) string {
	if s == "" {
		return "no null value"
	}
	return fmt.Sprintf("%q", s)
}

// RenderTrace renders one token per line, indented by nesting depth, with
// the fields the passes resolve: offsets for every non-END token, sizes
// for encodings and null values where set.
func RenderTrace(seq ir.Sequence) string {
	var buf strings.Builder
	for i, depth := range seq.Depths() {
		tok := seq.At(i)
		buf.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&buf, "%s %s", tok.Signal(), tok.Name())
		if tok.Signal().IsEnd() {
			buf.WriteByte('\n')
			continue
		}
		if tok.Signal() == ir.Encoding {
			fmt.Fprintf(&buf, " size=%d", tok.Size())
		}
		fmt.Fprintf(&buf, " offset=%d", tok.Offset())
		if null, ok := tok.Constraints().NullValue(); ok {
			fmt.Fprintf(&buf, " null=%s", null)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
