// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pgbridge/cli/internal/bridge"
	"pgbridge/cli/internal/bridge/stdioclient"
	"pgbridge/cli/internal/config"
	"pgbridge/cli/internal/dsn"
	"pgbridge/cli/internal/httpapi"
	"pgbridge/cli/internal/keychain"
	"pgbridge/cli/internal/logging"
)

var (
	serveAddr    string
	serveTimeout int
	serveDSN     string
	verboseServe bool
)

// serveCmd represents the serve command. It spawns the stdio tool server as a
// child process, performs the ping handshake, and exposes the tool API over
// HTTP until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP bridge in front of the stdio tool server",
	Long: `The serve command starts the local HTTP server and spawns 'pgbridge stdio'
as a child process. Tool calls arriving over HTTP are forwarded to the child
as line-delimited JSON-RPC and matched back to callers by request id, so many
calls can be in flight at once.

The database DSN is resolved from --dsn, the PGBRIDGE_DSN or DATABASE_URL
environment variables, or the OS keychain (stored by 'pgbridge connect').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if verboseServe || cfg.LogLevel == "debug" {
			verboseServe = true
			os.Setenv("PGBRIDGE_VERBOSE", "1")
		}

		addr := resolveAddr(cfg)
		timeout := resolveTimeout(cfg)

		rawDSN, source, err := resolveDSN(cfg)
		if err != nil {
			return err
		}
		normalizedDSN, err := dsn.Parse(rawDSN)
		if err != nil {
			fmt.Println("❌ The stored DSN is not a valid PostgreSQL connection string.")
			fmt.Println("   Run 'pgbridge connect' to replace it.")
			return err
		}
		if verboseServe {
			pterm.Printf("Using DSN from %s\n", source)
		}

		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locating own binary: %w", err)
		}

		child := stdioclient.NewChildProcess(exe, "stdio")
		child.Env = []string{"PGBRIDGE_DSN=" + normalizedDSN}
		br := bridge.New(child, timeout)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cursor.Hide()
		spinner, _ := pterm.DefaultSpinner.Start("Starting tool server")
		if err := br.Start(ctx); err != nil {
			if spinner != nil {
				spinner.Fail("Tool server failed to start")
			}
			cursor.Show()
			logging.PresentBridgeError(err.Error())
			return err
		}
		if spinner != nil {
			spinner.Success("Tool server ready")
		}
		cursor.Show()
		defer func() {
			_ = br.Close(context.Background())
		}()

		api := httpapi.New(br, timeout)
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("pgbridge")).
			WithLeftPadding(1).WithRightPadding(1).WithTopPadding(1).WithBottomPadding(1).
			Printfln("Listening on http://%s\nTool calls:  POST /api/call\nHealth:      GET  /healthz\nDocs:        GET  /", displayAddr(addr))
		pterm.Println()
		pterm.Println("Press Ctrl+C to stop.")

		select {
		case <-ctx.Done():
			pterm.Println()
			pterm.Println("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

// resolveAddr picks the listen address: flag, then env, then config.
func resolveAddr(cfg config.Config) string {
	if serveAddr != "" {
		return serveAddr
	}
	if env := strings.TrimSpace(os.Getenv("PGBRIDGE_ADDR")); env != "" {
		return env
	}
	return cfg.HTTP.Addr
}

// resolveTimeout picks the per-request timeout: flag, then env, then config.
func resolveTimeout(cfg config.Config) time.Duration {
	if serveTimeout > 0 {
		return time.Duration(serveTimeout) * time.Second
	}
	if env := strings.TrimSpace(os.Getenv("PGBRIDGE_TIMEOUT")); env != "" {
		if secs, err := strconv.Atoi(env); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return cfg.HTTP.RequestTimeout()
}

// resolveDSN finds the connection string, preferring explicit sources over
// stored ones. Returns the DSN and a label naming where it came from.
func resolveDSN(cfg config.Config) (string, string, error) {
	if strings.TrimSpace(serveDSN) != "" {
		return strings.TrimSpace(serveDSN), "--dsn flag", nil
	}
	if env := strings.TrimSpace(os.Getenv("PGBRIDGE_DSN")); env != "" {
		return env, "PGBRIDGE_DSN environment variable", nil
	}
	if env := strings.TrimSpace(os.Getenv("DATABASE_URL")); env != "" {
		return env, "DATABASE_URL environment variable", nil
	}
	if cfg.DB.Provided && strings.TrimSpace(cfg.DB.DSN) != "" {
		return strings.TrimSpace(cfg.DB.DSN), "config file", nil
	}

	km, err := keychain.GetManager()
	if err != nil {
		return "", "", fmt.Errorf("no DSN configured and secure storage unavailable: %w (set PGBRIDGE_DSN or DATABASE_URL)", err)
	}
	stored, err := km.LoadDBDSN()
	if err != nil || strings.TrimSpace(stored) == "" {
		return "", "", errors.New("no database connection configured; run 'pgbridge connect' or set PGBRIDGE_DSN")
	}
	return strings.TrimSpace(stored), "OS keychain", nil
}

// displayAddr rewrites a bare ":port" listen address into something clickable.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, e.g. 127.0.0.1:8089)")
	serveCmd.Flags().IntVar(&serveTimeout, "timeout", 0, "Per-request timeout in seconds (default from config)")
	serveCmd.Flags().StringVar(&serveDSN, "dsn", "", "PostgreSQL DSN (overrides env and keychain)")
	serveCmd.Flags().BoolVarP(&verboseServe, "verbose", "v", false, "Enable verbose debug output")
}
