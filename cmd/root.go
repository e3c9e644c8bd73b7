// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the pgbridge application.
// It implements subcommands for serving the HTTP bridge, running the stdio tool
// server, and managing the database connection, using the Cobra CLI framework.
// The package handles command parsing, execution, and provides a terminal UI
// with spinners and progress indicators.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "pgbridge",
	Short:         "HTTP bridge exposing PostgreSQL tools over a stdio child process",
	Long: `pgbridge runs a local HTTP server that forwards tool calls (query,
schema introspection, record writes) to a child process speaking
line-delimited JSON-RPC over stdio. The child owns the database
connection; the HTTP side only correlates requests with responses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("pgbridge %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}
