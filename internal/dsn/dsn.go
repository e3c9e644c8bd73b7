// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn parses and normalizes PostgreSQL connection strings.
// The bridge only speaks PostgreSQL, so anything without a postgres://
// or postgresql:// scheme is rejected up front with a hint.
package dsn

import "fmt"

// Info contains parsed information from a DSN string
type Info struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// String returns the original DSN string
func (d *Info) String() string {
	return d.Original
}

// Masked returns the DSN with the password replaced, safe for display.
func (d *Info) Masked() string {
	if d.Password == "" {
		return fmt.Sprintf("postgresql://%s@%s:%s/%s", d.User, d.Host, d.Port, d.Database)
	}
	return fmt.Sprintf("postgresql://%s:***@%s:%s/%s", d.User, d.Host, d.Port, d.Database)
}

// ParseError represents an error that occurred during DSN parsing
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}

// Parse parses a PostgreSQL DSN string and returns a normalized
// connection string. This is the main entry point for DSN parsing.
func Parse(dsn string) (string, error) {
	info, err := ParseInfo(dsn)
	if err != nil {
		return "", err
	}
	return Normalize(info)
}

// Validate validates a DSN string without normalizing it
func Validate(dsn string) error {
	_, err := ParseInfo(dsn)
	return err
}

// ParseInfo parses a DSN string and returns detailed connection info.
// Useful for inspecting connection details.
func ParseInfo(dsn string) (*Info, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid PostgreSQL connection string")
	}
	return parsePostgres(dsn)
}
