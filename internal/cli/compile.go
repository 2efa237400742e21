package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/msgir/internal/compiler"
	"github.com/roach88/msgir/internal/ir"
	"github.com/roach88/msgir/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	DB     string // SQLite store path, overrides [store].path
}

// CompiledMessage is one message after the pass pipeline.
type CompiledMessage struct {
	Name   string         `json:"name" yaml:"name"`
	ID     int64          `json:"id" yaml:"id"`
	Hash   string         `json:"hash" yaml:"hash"`
	Tokens []ir.TokenView `json:"tokens" yaml:"tokens"`
	seq    ir.Sequence
}

// CompilationResult holds the compiled messages of a schema directory.
type CompilationResult struct {
	Source        string            `json:"source" yaml:"source"`
	ByteOrder     string            `json:"byte_order" yaml:"byte_order"`
	IRVersion     string            `json:"ir_version" yaml:"ir_version"`
	Messages      []CompiledMessage `json:"messages" yaml:"messages"`
	CompilationID string            `json:"compilation_id,omitempty" yaml:"compilation_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir>",
		Short: "Compile CUE message schemas to token IR",
		Long: `Compile the CUE message schemas in a directory to token IR.

Each message is validated, optional fields get their null sentinels and
byte offsets are resolved. The result can be written to a JSON file and
persisted to a SQLite store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite store to persist sequences into")

	return cmd
}

func runCompile(opts *CompileOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting structured output
		Verbose:   opts.Verbose,
	}

	result, err := compileDir(opts.RootOptions, schemaDir, formatter)
	if err != nil {
		loadErr := asLoadError(err)
		return formatter.fail(ExitCommandError, loadErr.Code, loadErr.Detail(), nil)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if path := opts.storePath(opts.DB); path != "" {
		id, err := persist(cmd, path, schemaDir, result)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		result.CompilationID = id
		opts.logger().Info("compilation stored", "db", path, "id", id, "messages", len(result.Messages))
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// compileDir loads a schema directory and runs every message through the
// configured pipeline. Errors are *LoadError.
func compileDir(opts *RootOptions, dir string, formatter *OutputFormatter) (*CompilationResult, error) {
	cfg := opts.config()
	loaded, err := LoadSchemas(dir, compiler.WithByteOrder(cfg.ByteOrder()))
	if err != nil {
		return nil, err
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	pipeline := opts.pipeline()
	result := &CompilationResult{
		Source:    dir,
		ByteOrder: loaded.Schema.ByteOrder.String(),
		IRVersion: ir.IRVersion,
	}
	for _, msg := range loaded.Schema.Messages {
		formatter.VerboseLog("Compiling message: %s", msg.Name)
		start := time.Now()

		seq, err := pipeline.Run(msg.Tokens)
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodePassFailed,
				Message: fmt.Sprintf("message %s: %v", msg.Name, err),
				Pos:     msg.Pos,
			}
		}
		hash, err := ir.SequenceHash(seq)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("message %s: %v", msg.Name, err)}
		}

		opts.logger().Debug("message compiled",
			"message", msg.Name, "tokens", seq.Len(), "hash", hash, "duration", time.Since(start))
		result.Messages = append(result.Messages, CompiledMessage{
			Name:   msg.Name,
			ID:     msg.ID,
			Hash:   hash,
			Tokens: seq.Views(),
			seq:    seq,
		})
	}
	return result, nil
}

// persist writes every message and records the compilation.
func persist(cmd *cobra.Command, path, source string, result *CompilationResult) (string, error) {
	s, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer s.Close()

	ctx := cmd.Context()
	hashes := make([]string, 0, len(result.Messages))
	for _, msg := range result.Messages {
		hash, err := s.WriteSequence(ctx, msg.Name, msg.seq)
		if err != nil {
			return "", err
		}
		hashes = append(hashes, hash)
	}
	return s.RecordCompilation(ctx, source, hashes)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Structured() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s Compiled %d message(s) (%s)\n\n",
		okMark, len(result.Messages), result.ByteOrder)

	fmt.Fprintln(formatter.Writer, "Messages:")
	for _, msg := range result.Messages {
		fmt.Fprintf(formatter.Writer, "  %s (id %d): %d token(s), %s\n",
			msg.Name, msg.ID, len(msg.Tokens), shortHash(msg.Hash))
	}
	fmt.Fprintln(formatter.Writer)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote token IR to %s\n", outputFile)
	}
	if result.CompilationID != "" {
		fmt.Fprintf(formatter.Writer, "Stored compilation %s\n", result.CompilationID)
	}

	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// writeIRToFile writes the compilation result to a file as indented JSON.
// (canonical JSON without indentation is used only for hashing)
func writeIRToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
