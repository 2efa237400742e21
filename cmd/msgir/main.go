// Command msgir compiles CUE message schemas into flat token IR.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/msgir/internal/cli"
	"github.com/roach88/msgir/internal/ir"
)

func main() {
	root := cli.NewRootCommand()
	root.Version = ir.ToolVersion

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "msgir: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
