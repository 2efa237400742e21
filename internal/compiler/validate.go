package compiler

import (
	"fmt"

	"github.com/roach88/msgir/internal/ir"
	"github.com/roach88/msgir/internal/irpass"
)

// Validation error codes (E100-E199)
const (
	ErrNegativeID    = "E101" // schema id below zero
	ErrEmptyMessage  = "E102" // message or group with no fields, groups or data
	ErrDuplicateID   = "E105" // schema id reused within a scope
	ErrDuplicateName = "E106" // name reused within a scope
	ErrStructure     = "E120" // token sequence rejected by irpass.Validate
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
	Code    string `json:"code" yaml:"code"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// scope holds the ids and names already used by the direct children of a
// message or group.
type scope struct {
	path     string
	ids      map[int64]string
	names    map[string]bool
	children int
}

func newScope(path string) *scope {
	return &scope{path: path, ids: make(map[int64]string), names: make(map[string]bool)}
}

// claim records a child and reports clashes with earlier siblings.
func (s *scope) claim(tok ir.Token, line int) []ValidationError {
	var errs []ValidationError
	path := s.path + "." + tok.Name()
	s.children++

	if id := tok.SchemaID(); id < 0 {
		errs = append(errs, ValidationError{
			Field:   path + ".id",
			Message: fmt.Sprintf("schema id %d is negative", id),
			Code:    ErrNegativeID,
			Line:    line,
		})
	} else if prev, ok := s.ids[id]; ok {
		errs = append(errs, ValidationError{
			Field:   path + ".id",
			Message: fmt.Sprintf("schema id %d already used by %q", id, prev),
			Code:    ErrDuplicateID,
			Line:    line,
		})
	} else {
		s.ids[id] = tok.Name()
	}

	if s.names[tok.Name()] {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("duplicate name %q", tok.Name()),
			Code:    ErrDuplicateName,
			Line:    line,
		})
	}
	s.names[tok.Name()] = true
	return errs
}

// Validate checks a compiled schema and returns every problem found
// (does not fail-fast). Schema ids must be non-negative and unique among
// siblings, names unique among siblings, and every message and group must
// declare something. Each message must also pass irpass.Validate.
func Validate(s *Schema) []ValidationError {
	var errs []ValidationError
	messages := newScope("message")

	for _, msg := range s.Messages {
		line := 0
		if msg.Pos.IsValid() {
			line = msg.Pos.Line()
		}

		if err := irpass.Validate(msg.Tokens); err != nil {
			errs = append(errs, ValidationError{
				Field:   "message." + msg.Name,
				Message: err.Error(),
				Code:    ErrStructure,
				Line:    line,
			})
			continue
		}

		var stack []*scope
		top := func() *scope {
			if len(stack) == 0 {
				return messages
			}
			return stack[len(stack)-1]
		}
		for _, tok := range msg.Tokens.All() {
			switch tok.Signal() {
			case ir.BeginMessage:
				errs = append(errs, messages.claim(tok, line)...)
				stack = append(stack, newScope("message."+tok.Name()))
			case ir.BeginField:
				errs = append(errs, top().claim(tok, line)...)
			case ir.BeginGroup:
				parent := top()
				errs = append(errs, parent.claim(tok, line)...)
				stack = append(stack, newScope(parent.path+"."+tok.Name()))
			case ir.EndGroup, ir.EndMessage:
				closed := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if closed.children == 0 {
					errs = append(errs, ValidationError{
						Field:   closed.path,
						Message: "must declare at least one field, group or data entry",
						Code:    ErrEmptyMessage,
						Line:    line,
					})
				}
			}
		}
	}

	return errs
}
