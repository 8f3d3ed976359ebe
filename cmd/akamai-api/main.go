// Package main is the entry point of the akamai-api command line interface.
package main

import (
	"log/slog"
	"os"

	"github.com/akamai-api/akamai-api/cmd/akamai-api/commands"
)

func main() {
	a, err := commands.New()
	if err != nil {
		slog.Error("Failed to create the application", "error", err)
		os.Exit(1)
	}

	os.Exit(run(a))
}

type app interface {
	Run() error
	UsageError() bool
}

func run(a app) int {
	if err := a.Run(); err != nil {
		slog.Error(err.Error())

		if a.UsageError() {
			return 2
		}
		return 1
	}

	return 0
}
