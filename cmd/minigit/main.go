// Command minigit is a minimal version control tool.
package main

import (
	"os"

	"github.com/kilupskalvis/minigit/internal/cli"
)

func main() {
	// Command handlers exit on their own errors; Execute only fails on
	// unknown commands, flags or argument counts.
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitUsage)
	}
}
