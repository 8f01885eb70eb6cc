// Command qsarpipe is the CLI entry point for the substitution-isomer QSAR
// pipeline.
package main

import (
	"os"

	"github.com/chemtools/qsarpipe/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
