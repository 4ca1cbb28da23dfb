// Command workbench is the entry point for the Workbench CLI.
package main

import (
	"os"

	"github.com/custodia-labs/workbench-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
