// Package main provides the entry point for the refmend CLI tool.
package main

import "github.com/refmend/refmend/cmd/refmend/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
