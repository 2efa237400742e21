// Package irpass holds the transformations and checks that run over an
// ir.Sequence after a producer has built it.
//
// Every pass is a pure function from one Sequence to a new Sequence; the
// input is never modified. Validate is the structural gate: it checks
// BEGIN/END balance and leaf placement with a single stack scan and stops
// at the first violation. ResolveOffsets fills in byte offsets left as
// ir.UnknownOffset, and DefaultNullValues gives optional encodings the null
// sentinel of their primitive type.
//
// Pipeline chains passes and logs each step:
//
//	seq, err := irpass.DefaultPipeline(logger).Run(seq)
package irpass
