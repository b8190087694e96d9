package main

import (
	"os"

	"github.com/rustyeddy/bounce/cmd/bounce/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
