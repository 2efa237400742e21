// Package harness runs conformance scenarios against the schema compiler
// and the pass pipeline.
//
// # Scenario Format
//
// Scenarios are YAML files with an inline CUE schema and a list of
// assertions on the resolved token sequences:
//
//	name: quote
//	description: "composite followed by an optional field"
//	byte_order: bigEndian
//	schema: |
//	  message: Quote: {id: 3, fields: [...]}
//	assertions:
//	  - type: token_count
//	    message: Quote
//	    count: 11
//	  - type: offset
//	    message: Quote
//	    index: 8
//	    offset: 9
//
// # Assertion Types
//
//   - token_count: the message has exactly count tokens
//   - signal: the token at index has the given signal
//   - offset: the token at index resolved to the given byte offset
//   - null_value: the token at index carries the given null value
//   - validation_error: schema validation reported the given code
//   - compile_error: compilation failed with a message containing contains
//
// Every message that compiles and validates is also written to an
// in-memory store and read back; a changed hash fails the scenario.
//
// # Golden Files
//
// RunWithGolden compares a text trace of every resolved message against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
