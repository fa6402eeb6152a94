// Package main provides the CLI for the LeapDQ data quality reconciliation
// engine.
package main

import (
	"errors"
	"os"

	"github.com/leapstack-labs/leapdq/internal/cli"
	"github.com/leapstack-labs/leapdq/internal/cli/commands"
)

// Exit codes.
const (
	exitFindings = 1
	exitError    = 2
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, commands.ErrChecksFailed) || errors.Is(err, commands.ErrDatasetsDiffer) {
			os.Exit(exitFindings)
		}
		os.Exit(exitError)
	}
}
