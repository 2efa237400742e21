package cli

import (
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/roach88/msgir/internal/ir"
)

// Message diff statuses.
const (
	DiffSame    = "same"
	DiffChanged = "changed"
	DiffAdded   = "added"
	DiffRemoved = "removed"
)

// MessageDiff compares one message across two schema directories.
type MessageDiff struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Diff   string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// DiffResult holds the per-message comparison.
type DiffResult struct {
	Identical bool          `json:"identical" yaml:"identical"`
	Messages  []MessageDiff `json:"messages" yaml:"messages"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <schema-dir-a> <schema-dir-b>",
		Short: "Compare the token IR of two schema directories",
		Long: `Compile two schema directories and print a line diff of each
message's resolved token sequence. Exits 1 when any message differs.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runDiff(opts *RootOptions, dirA, dirB string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	from, err := compileDir(opts, dirA, formatter)
	if err != nil {
		loadErr := asLoadError(err)
		return formatter.fail(ExitCommandError, loadErr.Code, loadErr.Detail(), nil)
	}
	to, err := compileDir(opts, dirB, formatter)
	if err != nil {
		loadErr := asLoadError(err)
		return formatter.fail(ExitCommandError, loadErr.Code, loadErr.Detail(), nil)
	}

	result := DiffMessages(from.Messages, to.Messages)

	if formatter.Structured() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputDiffText(formatter, result)
	}

	if !result.Identical {
		return NewExitError(ExitFailure, "schemas differ")
	}
	return nil
}

// DiffMessages pairs messages by name. Messages of from come first in
// their order, then those only in to.
func DiffMessages(from, to []CompiledMessage) DiffResult {
	result := DiffResult{Identical: true, Messages: []MessageDiff{}}

	toByName := make(map[string]CompiledMessage, len(to))
	for _, m := range to {
		toByName[m.Name] = m
	}
	seen := make(map[string]bool, len(from))

	for _, a := range from {
		seen[a.Name] = true
		b, ok := toByName[a.Name]
		switch {
		case !ok:
			result.Messages = append(result.Messages, MessageDiff{
				Name: a.Name, Status: DiffRemoved, Diff: lineDiff(a.seq, ir.Sequence{}),
			})
		case a.Hash == b.Hash:
			result.Messages = append(result.Messages, MessageDiff{Name: a.Name, Status: DiffSame})
		default:
			result.Messages = append(result.Messages, MessageDiff{
				Name: a.Name, Status: DiffChanged, Diff: lineDiff(a.seq, b.seq),
			})
		}
	}
	for _, b := range to {
		if seen[b.Name] {
			continue
		}
		result.Messages = append(result.Messages, MessageDiff{
			Name: b.Name, Status: DiffAdded, Diff: lineDiff(ir.Sequence{}, b.seq),
		})
	}

	for _, m := range result.Messages {
		if m.Status != DiffSame {
			result.Identical = false
		}
	}
	return result
}

// lineDiff renders the debug forms of two sequences as a line diff with
// "-", "+" and " " prefixes.
func lineDiff(from, to ir.Sequence) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from.String(), to.String())
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix = "+"
		case diffpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}

func outputDiffText(formatter *OutputFormatter, result DiffResult) {
	for _, m := range result.Messages {
		if m.Status == DiffSame {
			fmt.Fprintf(formatter.Writer, "%s %s: %s\n", okMark, m.Name, m.Status)
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s %s: %s\n", failMark, m.Name, m.Status)
		fmt.Fprint(formatter.Writer, m.Diff)
	}
}
