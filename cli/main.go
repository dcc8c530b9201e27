package main

import (
	"os"

	"github.com/satishbabariya/cqlmigrate/cli/commands"
)

// The stock binary has no catalog. It reports status and history and inspects
// keyspaces; projects build their own binary with commands.Execute.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
