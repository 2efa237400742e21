package irpass

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"github.com/roach88/msgir/internal/ir"
)

// ErrOffsetOverflow indicates a resolved offset does not fit in int32.
var ErrOffsetOverflow = errors.New("offset overflows int32")

// frame tracks the running offset of one block: a message, a group, a
// composite, or the sequence root.
type frame struct {
	offset int64
	known  bool
}

// scope is one open BEGIN. Transparent scopes (field, enum, set) share the
// frame of the scope below them.
type scope struct {
	signal ir.Signal
	frame  *frame
	start  int64
	placed bool
	size   int32
}

func opensFrame(s ir.Signal) bool {
	return s == ir.BeginMessage || s == ir.BeginGroup || s == ir.BeginComposite
}

// ResolveOffsets returns a new sequence in which every token whose offset
// is ir.UnknownOffset receives the running byte offset of its enclosing
// message, group or composite, where that offset is computable.
//
// An ENCODING advances its block by its size. A variable-size encoding
// leaves every later sibling at ir.UnknownOffset, as does a repeating
// group. VALID_VALUE and CHOICE take the offset of their enum or set.
// Explicit offsets are kept; one ahead of the running offset moves it
// forward. A token without a primitive type at offset 0 counts as
// unknown, since the reduced and minimal forms default to 0. END tokens are
// left as they are.
//
// The input does not have to be valid: unmatched ENDs are ignored.
// Running ResolveOffsets on its own output returns an equal sequence.
func ResolveOffsets(seq ir.Sequence) (ir.Sequence, error) {
	root := &frame{known: true}
	stack := []scope{{frame: root}}

	var b ir.Builder
	for i, tok := range seq.All() {
		top := &stack[len(stack)-1]
		sig := tok.Signal()

		switch {
		case sig == ir.ValidValue || sig == ir.Choice:
			if tok.Offset() == ir.UnknownOffset && top.placed && (top.signal == ir.BeginEnum || top.signal == ir.BeginSet) {
				resolved, err := narrow(i, top.start)
				if err != nil {
					return ir.Sequence{}, err
				}
				tok = tok.WithOffset(resolved)
			}

		case sig.IsEnd():
			want, _ := sig.Opening()
			if len(stack) == 1 || top.signal != want {
				break
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1].frame
			switch sig {
			case ir.EndComposite:
				endComposite(parent, closed)
			case ir.EndGroup:
				parent.known = false
			}

		default:
			at, placed := place(top.frame, tok)
			if placed && unplaced(tok) {
				resolved, err := narrow(i, at)
				if err != nil {
					return ir.Sequence{}, err
				}
				tok = tok.WithOffset(resolved)
			}

			if sig == ir.Encoding {
				advance(top.frame, tok, at, placed)
			}

			if sig.IsBegin() {
				next := scope{signal: sig, frame: top.frame, start: at, placed: placed, size: tok.Size()}
				if opensFrame(sig) {
					next.frame = &frame{known: true}
				}
				stack = append(stack, next)
			}
		}

		b.Append(tok)
	}
	return b.Build(), nil
}

// unplaced reports whether tok carries no position of its own. Reduced and
// minimal form tokens are built with offset 0, which marks no relevant
// offset rather than byte 0.
func unplaced(tok ir.Token) bool {
	if tok.Offset() == ir.UnknownOffset {
		return true
	}
	_, encoded := tok.PrimitiveType()
	return !encoded && tok.Offset() == 0
}

// place returns where tok sits in f and whether that is known. An explicit
// offset wins; one ahead of a known running offset moves the frame to it.
func place(f *frame, tok ir.Token) (int64, bool) {
	explicit := int64(tok.Offset())
	if !unplaced(tok) {
		if f.known && explicit > f.offset {
			f.offset = explicit
		}
		return explicit, true
	}
	if !f.known {
		return 0, false
	}
	return f.offset, true
}

func advance(f *frame, tok ir.Token, at int64, placed bool) {
	if tok.Size() == ir.VariableSize {
		f.known = false
		return
	}
	if !f.known || !placed {
		return
	}
	f.offset = max(f.offset, at+int64(tok.Size()))
}

// endComposite adds a finished composite to its parent frame. The
// composite occupies the larger of its declared size and its content.
func endComposite(parent *frame, closed scope) {
	declared := int64(max(closed.size, 0))
	if !closed.frame.known && declared == 0 {
		parent.known = false
		return
	}
	size := declared
	if closed.frame.known {
		size = max(size, closed.frame.offset)
	}
	if parent.known && closed.placed {
		parent.offset = max(parent.offset, closed.start+size)
	}
}

func narrow(index int, offset int64) (int32, error) {
	v, err := safecast.Conv[int32](offset)
	if err != nil {
		return 0, fmt.Errorf("token %d: offset %d: %w", index, offset, ErrOffsetOverflow)
	}
	return v, nil
}
