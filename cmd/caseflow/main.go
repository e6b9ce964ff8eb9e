package main

import (
	"os"

	"github.com/sentinelle-systems/caseflow/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
