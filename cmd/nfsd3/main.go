// Command nfsd3 serves a single in-memory filesystem over NFSv3 and
// MOUNT.
package main

import (
	"fmt"
	"os"

	"github.com/go-nfsd/nfsd3/cmd/nfsd3/commands"
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
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
