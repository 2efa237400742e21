package harness

import "github.com/roach88/msgir/internal/ir"

// MessageTrace is one message after the pass pipeline.
type MessageTrace struct {
	Name   string         `json:"name"`
	Hash   string         `json:"hash"`
	Tokens []ir.TokenView `json:"tokens"`
	seq    ir.Sequence
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Messages holds the resolved messages in schema order. Empty when the
	// schema failed to compile or validate.
	Messages []MessageTrace `json:"messages"`

	// CompileError is the compiler error text, if any.
	CompileError string `json:"compile_error,omitempty"`

	// ValidationCodes lists the codes reported by schema validation.
	ValidationCodes []string `json:"validation_codes,omitempty"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Messages: []MessageTrace{},
		Errors:   []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Message returns the resolved message with the given name.
func (r *Result) Message(name string) (MessageTrace, bool) {
	for _, m := range r.Messages {
		if m.Name == name {
			return m, true
		}
	}
	return MessageTrace{}, false
}
