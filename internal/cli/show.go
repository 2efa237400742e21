package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/msgir/internal/ir"
	"github.com/roach88/msgir/internal/store"
)

// StoreOptions holds flags for commands that read the store.
type StoreOptions struct {
	*RootOptions
	DB string // SQLite store path, overrides [store].path
}

// StoredSequence is a sequence read back from the store.
type StoredSequence struct {
	Hash   string         `json:"hash" yaml:"hash"`
	Tokens []ir.TokenView `json:"tokens" yaml:"tokens"`
	seq    ir.Sequence
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <hash|compilation-id>",
		Short: "Print a stored sequence",
		Long: `Print a sequence stored by "msgir compile --db".

The argument is either a sequence hash or a compilation id; a compilation
id prints every sequence it recorded, in order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite store path")

	return cmd
}

func runShow(opts *StoreOptions, ref string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := openStore(opts)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer s.Close()
	ctx := cmd.Context()

	seq, err := s.ReadSequence(ctx, ref)
	var sequences []StoredSequence
	switch {
	case err == nil:
		sequences = append(sequences, StoredSequence{Hash: ref, Tokens: seq.Views(), seq: seq})
	case errors.Is(err, sql.ErrNoRows):
		compilation, err := s.ReadCompilation(ctx, ref)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.fail(ExitCommandError, ErrCodeNotStored, fmt.Sprintf("no sequence or compilation %q", ref), nil)
		}
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Compilation %s of %s", compilation.ID, compilation.Source)
		for _, hash := range compilation.Hashes {
			seq, err := s.ReadSequence(ctx, hash)
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("sequence %s: %v", hash, err), nil)
			}
			sequences = append(sequences, StoredSequence{Hash: hash, Tokens: seq.Views(), seq: seq})
		}
	default:
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}

	if formatter.Structured() {
		return formatter.Success(sequences)
	}
	for _, stored := range sequences {
		fmt.Fprintf(formatter.Writer, "# %s\n%s", stored.Hash, stored.seq)
	}
	return nil
}

func openStore(opts *StoreOptions) (*store.Store, error) {
	path := opts.storePath(opts.DB)
	if path == "" {
		return nil, errors.New("no store: pass --db or set [store].path")
	}
	return store.Open(path)
}
