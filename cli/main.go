package main

import (
	"os"

	"github.com/instantcocoa/argus/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
