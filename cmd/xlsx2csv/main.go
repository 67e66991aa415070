// Package main is the entry point for the xlsx2csv CLI.
//
// The binary converts spreadsheet files (.xls/.xlsx) to CSV, delegating all
// functionality to the internal/cli package, which defines the cobra
// commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process and default to development placeholders.
package main

import (
	"github.com/shinji-kodama/xlsx2csv/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
