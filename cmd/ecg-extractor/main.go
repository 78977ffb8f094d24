package main

import (
	"fmt"
	"os"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/commands"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	commands.SetVersion(version, commit)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
