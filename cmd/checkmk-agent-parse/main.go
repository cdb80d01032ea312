// Command checkmk-agent-parse decodes checkmk monitoring agent output and
// reports the check_mk version/policy verdict.
package main

import (
	"fmt"
	"os"

	"github.com/morph027/checkmk/cmd/checkmk-agent-parse/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
