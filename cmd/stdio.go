// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"pgbridge/cli/internal/logging"
	"pgbridge/cli/internal/sqlexec"
	"pgbridge/cli/internal/tools"
)

// stdioCmd represents the stdio command. It runs the tool server end of the
// bridge: newline-framed JSON-RPC requests on stdin, responses on stdout.
// 'pgbridge serve' spawns this as a child process, but it can also be run
// directly by any client that speaks the same wire protocol.
var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Run the stdio tool server (normally spawned by 'pgbridge serve')",
	Long: `The stdio command connects to PostgreSQL and serves database tools over
stdin/stdout using line-delimited JSON-RPC. All diagnostics go to stderr;
stdout carries only wire messages.

The DSN is read from the PGBRIDGE_DSN or DATABASE_URL environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout is the wire, so the logger must stay on stderr.
		logger := log.New(os.Stderr, "pgbridge-stdio: ", log.LstdFlags)

		rawDSN := strings.TrimSpace(os.Getenv("PGBRIDGE_DSN"))
		if rawDSN == "" {
			rawDSN = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if rawDSN == "" {
			return errors.New("no DSN: set PGBRIDGE_DSN or DATABASE_URL")
		}

		ctx := cmd.Context()
		pool, err := pgxpool.New(ctx, rawDSN)
		if err != nil {
			logger.Print(logging.PresentError("invalid DSN", err))
			return err
		}
		defer pool.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			logger.Print(logging.PresentError("database connection failed", err))
			return err
		}
		logger.Print("connected to database, serving tools")

		reg := tools.NewDatabaseRegistry(sqlexec.New(pool))
		srv := tools.NewServer(reg, os.Stdin, os.Stdout)
		srv.Logf = logger.Printf

		err = srv.Run(ctx)
		logger.Print("tool server stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}
