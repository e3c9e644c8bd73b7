// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// BridgeErrorType represents the category of a bridge or database failure.
type BridgeErrorType int

const (
	BridgeErrorUnknown BridgeErrorType = iota
	BridgeErrorChildStart
	BridgeErrorHandshake
	BridgeErrorTimeout
	BridgeErrorTransport
	BridgeErrorDatabase
)

// ParseBridgeError categorizes a bridge error message.
func ParseBridgeError(errMsg string) BridgeErrorType {
	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "child start failed") || strings.Contains(lower, "executable file not found") {
		return BridgeErrorChildStart
	}
	if strings.Contains(lower, "handshake") {
		return BridgeErrorHandshake
	}
	if strings.Contains(lower, "timed out") || strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline") {
		return BridgeErrorTimeout
	}
	if strings.Contains(lower, "transport closed") || strings.Contains(lower, "broken pipe") || strings.Contains(lower, "closed pipe") {
		return BridgeErrorTransport
	}
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "password authentication") ||
		strings.Contains(lower, "does not exist") || strings.Contains(lower, "sqlstate") {
		return BridgeErrorDatabase
	}

	return BridgeErrorUnknown
}

// FormatBridgeError formats a bridge failure in a user-friendly way.
func FormatBridgeError(errMsg string) string {
	errType := ParseBridgeError(errMsg)

	var builder strings.Builder

	// Title
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Bridge Error"))
	builder.WriteString("\n\n")

	// User-friendly description
	switch errType {
	case BridgeErrorChildStart:
		builder.WriteString("The tool server process could not be started.\n")
		builder.WriteString("This usually happens when:\n")
		builder.WriteString("  • The pgbridge binary was moved after the server started\n")
		builder.WriteString("  • File permissions prevent execution\n")

	case BridgeErrorHandshake:
		builder.WriteString("The tool server started but never answered the first ping.\n")
		builder.WriteString("This could mean:\n")
		builder.WriteString("  • The database connection failed during startup\n")
		builder.WriteString("  • The child process crashed before it could respond\n")

	case BridgeErrorTimeout:
		builder.WriteString("A tool call did not complete in time.\n")
		builder.WriteString("This could be due to:\n")
		builder.WriteString("  • A long-running query holding the connection\n")
		builder.WriteString("  • The database being slow or unreachable\n")

	case BridgeErrorTransport:
		builder.WriteString("The connection to the tool server was lost.\n")
		builder.WriteString("This usually happens when:\n")
		builder.WriteString("  • The child process exited or was killed\n")
		builder.WriteString("  • The server is shutting down\n")

	case BridgeErrorDatabase:
		builder.WriteString("The database rejected the connection or request.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Check the DSN with 'pgbridge dbinfo'\n")
		builder.WriteString("  • Run 'pgbridge connect' to store a working connection string\n")

	default:
		builder.WriteString("The bridge hit an unexpected problem.\n")
	}

	builder.WriteString("\n")

	// Action to take
	if errType == BridgeErrorDatabase {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'pgbridge connect' and try again"))
	} else {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please restart 'pgbridge serve' and try again"))
	}

	builder.WriteString("\n")

	// Technical details (optional, for debugging)
	if strings.TrimSpace(errMsg) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}

	return builder.String()
}

// PresentBridgeError displays a formatted bridge error.
func PresentBridgeError(errMsg string) {
	fmt.Println()
	fmt.Println(FormatBridgeError(errMsg))
	fmt.Println()
}
