package irpass

import "github.com/roach88/msgir/internal/ir"

// DefaultNullValues returns a new sequence in which every optional ENCODING
// without a null value carries the null sentinel of its primitive type.
// Other tokens are copied unchanged.
func DefaultNullValues(seq ir.Sequence) ir.Sequence {
	return seq.Map(func(_ int, tok ir.Token) ir.Token {
		if tok.Signal() != ir.Encoding {
			return tok
		}
		pt, ok := tok.PrimitiveType()
		if !ok {
			return tok
		}
		c := tok.Constraints()
		if next := c.WithDefaultNull(pt); next != c {
			return tok.WithConstraints(next)
		}
		return tok
	})
}
