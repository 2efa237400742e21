package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/msgir/internal/ir"
)

// marshalConstraints converts a ConstraintsView to JSON TEXT.
// Struct fields encode in declaration order, so the text is stable.
func marshalConstraints(v ir.ConstraintsView) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal constraints: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalConstraints parses JSON TEXT to a ConstraintsView.
func unmarshalConstraints(data string) (ir.ConstraintsView, error) {
	var v ir.ConstraintsView
	if data == "" || data == "{}" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return ir.ConstraintsView{}, fmt.Errorf("unmarshal constraints: %w", err)
	}
	return v, nil
}
