package main

import (
	"os"

	"github.com/Iron-Ham/roadmap/internal/cmd"
	"github.com/Iron-Ham/roadmap/internal/exitcode"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(exitcode.FromError(err))
	}
}
