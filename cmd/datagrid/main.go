// Package main provides the datagrid CLI.
//
// The CLI supports:
//   - compile: Bind request input to a grid and print the SQL
//   - validate: Check CUE grid declarations
//   - test: Run YAML scenarios against their grids
//
// Usage:
//
//	datagrid [flags] <command>
//
// Defaults come from datagrid.yaml (found from the working directory up to
// the repository root) and DATAGRID_* environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/datagrid/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
