package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"dutybot/cmd/dutybot/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
