package main

import (
	"os"

	"GridSentinel/cmd/gridsentinel/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
