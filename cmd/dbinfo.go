// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pgbridge/cli/internal/dsn"
	"pgbridge/cli/internal/keychain"
	"pgbridge/cli/internal/logging"
)

// dbinfoCmd represents the dbinfo command for displaying database connection information.
// It shows the current database connection string with the password masked for security.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show current database connection string",
	Long: `The dbinfo command displays the currently configured database connection string (DSN)
with the password masked for security. This helps verify which database the bridge
will serve without exposing sensitive credentials.

The password in the DSN will be replaced with *** for security.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		// Try to get DSN from env vars first, mirroring serve's resolution order
		raw := ""
		if env := os.Getenv("PGBRIDGE_DSN"); strings.TrimSpace(env) != "" {
			raw = strings.TrimSpace(env)
			pterm.Println("Using DSN from PGBRIDGE_DSN environment variable")
			pterm.Println()
		} else if env := os.Getenv("DATABASE_URL"); strings.TrimSpace(env) != "" {
			raw = strings.TrimSpace(env)
			pterm.Println("Using DSN from DATABASE_URL environment variable")
			pterm.Println()
		}

		// Fallback to keychain
		if strings.TrimSpace(raw) == "" {
			km, err := keychain.GetManager()
			if err != nil {
				pterm.Println("❌ Secure storage is not available on this system")
				pterm.Println("   Keychain is only supported on macOS and Windows")
				return err
			}

			raw, err = km.LoadDBDSN()
			if err != nil || strings.TrimSpace(raw) == "" {
				pterm.Println("⚠️  No database connection configured")
				pterm.Println("   Please run: pgbridge connect")
				return nil
			}
			pterm.Println("Using DSN from OS keychain")
			pterm.Println()
		}

		// Mask the password in the DSN
		masked := ""
		if info, err := dsn.ParseInfo(raw); err == nil {
			masked = info.Masked()
		} else {
			// Unparseable; fall back to regex masking so nothing leaks
			masked = logging.Mask(raw)
		}

		// Display the connection info
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithLeftPadding(1).WithRightPadding(1).WithTopPadding(1).WithBottomPadding(1).
			Println(masked)
		pterm.Println()
		pterm.Println("To update this connection, run: pgbridge connect")
		pterm.Println()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
