// Package main is the entry point for the pgbridge application.
// It exposes PostgreSQL tools over HTTP by bridging to a stdio child process.
package main

import (
	"pgbridge/cli/cmd"
)

// main is the entry point for the pgbridge application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
