// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dbdiag provides user-friendly error handling for database connections.
package dbdiag

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"pgbridge/cli/internal/logging"
)

// FormatConnectError converts technical connection errors into user-friendly messages.
// It detects common error types (timeout, DNS, connection refused, TLS, auth failures)
// and displays helpful troubleshooting information.
func FormatConnectError(err error, context string) error {
	if err == nil {
		return nil
	}

	// Display user-friendly error message with pterm
	displayErrorMessage(err, context)

	// Return wrapped error for logging/debugging
	return fmt.Errorf("database connection error: %w", err)
}

// displayErrorMessage shows a formatted error message to the user based on error type.
func displayErrorMessage(err error, context string) {
	errStr := err.Error()

	// Check for specific error types
	if isTimeoutError(err) {
		showTimeoutError(context)
		return
	}

	if isDNSError(err) {
		showDNSError(context)
		return
	}

	if isConnectionRefusedError(err) {
		showConnectionRefusedError(context)
		return
	}

	if isTLSError(err) {
		showTLSError(context)
		return
	}

	if isAuthError(errStr) {
		showAuthError(context)
		return
	}

	if isUnknownDatabaseError(errStr) {
		showUnknownDatabaseError(context)
		return
	}

	// Generic connection error
	showGenericError(context, errStr)
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	// Check for timeout in error message
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	// Check for net.Error with Timeout()
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused")
}

// isTLSError checks if the error is a TLS error.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "ssl") ||
		strings.Contains(errStr, "certificate")
}

// isAuthError checks if the error indicates rejected credentials (SQLSTATE 28xxx).
func isAuthError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return strings.Contains(lower, "password authentication failed") ||
		strings.Contains(lower, "sqlstate 28p01") ||
		strings.Contains(lower, "sqlstate 28000") ||
		strings.Contains(lower, "role") && strings.Contains(lower, "does not exist")
}

// isUnknownDatabaseError checks if the error indicates a missing database (SQLSTATE 3D000).
func isUnknownDatabaseError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return strings.Contains(lower, "sqlstate 3d000") ||
		strings.Contains(lower, "database") && strings.Contains(lower, "does not exist")
}

// showTimeoutError displays a user-friendly timeout error message.
func showTimeoutError(context string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Println("The database took too long to respond. This could mean:")
	pterm.Println("  • The host or port in the DSN is wrong")
	pterm.Println("  • Postgres is behind a firewall that drops packets")
	pterm.Println("  • The database is under heavy load")
	pterm.Println()
	pterm.Println("Please check the DSN and try again.")
	pterm.Println()
}

// showDNSError displays a user-friendly DNS error message.
func showDNSError(context string) {
	pterm.Printf("🌐 Cannot resolve database host while %s\n", context)
	pterm.Println()
	pterm.Println("Unable to look up the host in the DSN. Please check:")
	pterm.Println("  • The hostname is spelled correctly")
	pterm.Println("  • Your internet connection is working")
	pterm.Println("  • DNS settings are correct")
	pterm.Println()
}

// showConnectionRefusedError displays a user-friendly connection refused error message.
func showConnectionRefusedError(context string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Println("The database is not accepting connections. This could mean:")
	pterm.Println("  • Postgres is not running on that host and port")
	pterm.Println("  • pg_hba.conf does not allow connections from this machine")
	pterm.Println("  • A firewall is blocking the port")
	pterm.Println()
}

// showTLSError displays a user-friendly TLS error message.
func showTLSError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("Cannot establish a TLS connection to the database. Try:")
	pterm.Println("  • Adding ?sslmode=require or ?sslmode=disable to the DSN")
	pterm.Println("  • Checking the server certificate")
	pterm.Println("  • Checking your system date and time")
	pterm.Println()
}

// showAuthError displays a user-friendly authentication error message.
func showAuthError(context string) {
	pterm.Printf("🔑 Authentication failed while %s\n", context)
	pterm.Println()
	pterm.Println("The database rejected the credentials in the DSN:")
	pterm.Println("  • Check the username and password")
	pterm.Println("  • Make sure the role exists on the server")
	pterm.Println()
	pterm.Println("Run 'pgbridge connect' to store a working connection string.")
	pterm.Println()
}

// showUnknownDatabaseError displays a message for a missing database.
func showUnknownDatabaseError(context string) {
	pterm.Printf("❓ Unknown database while %s\n", context)
	pterm.Println()
	pterm.Println("The server is reachable, but the database in the DSN does not exist.")
	pterm.Println("  • Check the database name at the end of the DSN")
	pterm.Println("  • Create the database first: createdb <name>")
	pterm.Println()
}

// showGenericError displays a generic error message for unrecognized errors.
func showGenericError(context string, errDetails string) {
	pterm.Printf("❌ Cannot connect to the database while %s\n", context)
	pterm.Println()
	pterm.Println("Please check:")
	pterm.Println("  • The DSN stored with 'pgbridge connect'")
	pterm.Println("  • That Postgres is reachable from this machine")
	pterm.Println()

	// Show abbreviated error details for debugging
	if errDetails != "" {
		shortErr := logging.Mask(errDetails)
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
		pterm.Println()
	}
}
