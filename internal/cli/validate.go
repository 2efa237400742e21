package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/msgir/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid" yaml:"valid"`
	Messages int                        `json:"messages" yaml:"messages"`
	Errors   []compiler.ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate schemas without writing output",
		Long: `Validate the CUE message schemas in a directory.

Reports every duplicate or negative schema id, duplicate name, empty
message or group and structural problem, instead of stopping at the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting structured output
		Verbose:   opts.Verbose,
	}

	errs, messages, err := ValidateSchemaDir(schemaDir, compiler.WithByteOrder(opts.config().ByteOrder()))
	if err != nil {
		loadErr := asLoadError(err)
		return formatter.fail(ExitCommandError, loadErr.Code, loadErr.Detail(), nil)
	}
	formatter.VerboseLog("Validated %d message(s) in %s", messages, schemaDir)

	if len(errs) > 0 {
		return outputValidationErrors(formatter, messages, errs)
	}
	return outputValidateSuccess(formatter, messages)
}

// ValidateSchemaDir validates every message in a schema directory.
// A schema that does not compile is reported as a single validation
// error; a directory that cannot be loaded returns a *LoadError.
func ValidateSchemaDir(dir string, opts ...compiler.Option) ([]compiler.ValidationError, int, error) {
	loaded, err := LoadSchemas(dir, opts...)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code == ErrCodeCompileFailed {
			return []compiler.ValidationError{{
				Field:   "schema",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    loadErr.Line(),
			}}, 0, nil
		}
		return nil, 0, err
	}
	return compiler.Validate(loaded.Schema), len(loaded.Schema.Messages), nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, messages int) error {
	if formatter.Structured() {
		return formatter.Success(ValidationResult{Valid: true, Messages: messages})
	}

	fmt.Fprintf(formatter.Writer, "%s All %d message(s) valid\n", okMark, messages)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, messages int, errs []compiler.ValidationError) error {
	if formatter.Structured() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Messages: messages, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
