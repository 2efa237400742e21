package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/msgir/internal/ir"
)

// Scenario defines a conformance scenario: a schema and the facts its
// compiled token sequences must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ByteOrder is the default byte order, used when the schema does not
	// declare one. Defaults to littleEndian.
	ByteOrder string `yaml:"byte_order,omitempty"`

	// Schema is the CUE source of the message schema.
	Schema string `yaml:"schema"`

	// Assertions validate the compiled result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one fact about the compiled result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Message names the message (token_count, signal, offset, null_value).
	Message string `yaml:"message,omitempty"`

	// Index is the token position within the message.
	Index int `yaml:"index,omitempty"`

	// Count is the expected number of tokens (token_count).
	Count int `yaml:"count,omitempty"`

	// Signal is the expected signal name, e.g. "ENCODING" (signal).
	Signal string `yaml:"signal,omitempty"`

	// Offset is the expected byte offset (offset).
	Offset int32 `yaml:"offset,omitempty"`

	// Value is the expected tagged value, e.g. "int:-128" (null_value).
	// Empty means no null value.
	Value string `yaml:"value,omitempty"`

	// Code is the expected validation code (validation_error).
	Code string `yaml:"code,omitempty"`

	// Contains is a substring of the expected compile error (compile_error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertTokenCount      = "token_count"
	AssertSignal          = "signal"
	AssertOffset          = "offset"
	AssertNullValue       = "null_value"
	AssertValidationError = "validation_error"
	AssertCompileError    = "compile_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	if s.ByteOrder != "" {
		if _, err := ir.LookupByteOrder(s.ByteOrder); err != nil {
			return fmt.Errorf("byte_order: %w", err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTokenCount, AssertSignal, AssertOffset, AssertNullValue:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for %s", index, a.Type)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative", index)
		}
	case AssertValidationError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for validation_error", index)
		}
	case AssertCompileError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for compile_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	switch a.Type {
	case AssertTokenCount:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for token_count", index)
		}
	case AssertSignal:
		if _, err := ir.LookupSignal(a.Signal); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	return nil
}
