package irpass

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/msgir/internal/ir"
)

// Pass is one named step of a Pipeline.
type Pass struct {
	Name  string
	Apply func(ir.Sequence) (ir.Sequence, error)
}

// ValidatePass wraps Validate as a pass that returns its input unchanged.
func ValidatePass() Pass {
	return Pass{
		Name: "validate",
		Apply: func(seq ir.Sequence) (ir.Sequence, error) {
			if err := Validate(seq); err != nil {
				return ir.Sequence{}, err
			}
			return seq, nil
		},
	}
}

// DefaultNullsPass wraps DefaultNullValues.
func DefaultNullsPass() Pass {
	return Pass{
		Name: "default-nulls",
		Apply: func(seq ir.Sequence) (ir.Sequence, error) {
			return DefaultNullValues(seq), nil
		},
	}
}

// ResolveOffsetsPass wraps ResolveOffsets.
func ResolveOffsetsPass() Pass {
	return Pass{Name: "resolve-offsets", Apply: ResolveOffsets}
}

// Pipeline runs passes in order. Each pass sees the previous one's output.
type Pipeline struct {
	passes []Pass
	logger *slog.Logger
}

// NewPipeline creates a pipeline. A nil logger uses slog.Default().
func NewPipeline(logger *slog.Logger, passes ...Pass) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{passes: passes, logger: logger}
}

// DefaultPipeline validates, defaults null values, then resolves offsets.
func DefaultPipeline(logger *slog.Logger) *Pipeline {
	return NewPipeline(logger, ValidatePass(), DefaultNullsPass(), ResolveOffsetsPass())
}

// Passes returns the pass names in run order.
func (p *Pipeline) Passes() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name
	}
	return names
}

// Run applies every pass and returns the final sequence. The first failing
// pass stops the run; its error is wrapped with the pass name.
func (p *Pipeline) Run(seq ir.Sequence) (ir.Sequence, error) {
	for _, pass := range p.passes {
		start := time.Now()
		out, err := pass.Apply(seq)
		if err != nil {
			p.logger.Debug("pass failed",
				"pass", pass.Name,
				"error", err,
			)
			return ir.Sequence{}, fmt.Errorf("pass %s: %w", pass.Name, err)
		}
		p.logger.Debug("pass applied",
			"pass", pass.Name,
			"tokens_in", seq.Len(),
			"tokens_out", out.Len(),
			"duration", time.Since(start),
		)
		seq = out
	}
	return seq, nil
}
