// Package sqlexec provides the SQL execution layer over a pgx connection pool.
// It treats the database as an opaque executor: SQL text plus positional
// parameters in, rows or a row count out. Result values are normalized into
// JSON-serializable forms so tool payloads survive marshaling regardless of
// the PostgreSQL types involved (UUIDs, byte arrays, etc.).
package sqlexec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Result represents a normalized SQL result for JSON marshaling.
type Result struct {
	Columns      []string `json:"columns"`
	Rows         [][]any  `json:"rows"`
	RowsAffected int64    `json:"rows_affected,omitempty"`
}

// RowMaps converts the positional rows into column-keyed maps, which is the
// shape tool payloads use.
func (r *Result) RowMaps() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// MarshalJSON implements custom JSON marshaling for Result to handle pgx types properly.
func (r Result) MarshalJSON() ([]byte, error) {
	type Alias Result
	a := Alias(r)

	if len(r.Rows) > 0 {
		serializableRows := make([][]any, len(r.Rows))
		for i, row := range r.Rows {
			serializableRows[i] = make([]any, len(row))
			for j, val := range row {
				serializableRows[i][j] = normalizeValue(val)
			}
		}
		a.Rows = serializableRows
	}

	return json.Marshal(a)
}

// normalizeValue converts pgx-specific values into JSON-serializable ones.
func normalizeValue(val any) any {
	switch v := val.(type) {
	case []byte:
		// 16-byte values are UUIDs; render in canonical form with %02x so
		// every byte keeps its leading zero.
		if len(v) == 16 {
			return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
				v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
				v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
		}
		return fmt.Sprintf("\\x%x", v)
	case [16]byte:
		return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
			v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
			v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
	case nil:
		return nil
	default:
		return v
	}
}

// Executor is the opaque relational backend the tool handlers run against.
// Execution failures (constraint violations, syntax errors, missing
// relations) come back as ordinary errors with the server's message text
// preserved verbatim.
type Executor interface {
	// Query runs SQL that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Result, error)
	// Exec runs SQL that returns only a row count.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// PoolExecutor implements Executor over a pgx connection pool.
type PoolExecutor struct {
	Pool *pgxpool.Pool
}

// New creates a PoolExecutor from an existing pgx pool.
func New(pool *pgxpool.Pool) *PoolExecutor {
	return &PoolExecutor{Pool: pool}
}

// Query runs SQL and collects all rows with their column names. Values are
// normalized as they are read so downstream JSON encoding never sees a
// pgx-specific type.
func (e *PoolExecutor) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	conn, err := e.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &Result{Columns: []string{}, Rows: [][]any{}}
	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = string(fd.Name)
	}
	res.Columns = cols

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v)
		}
		res.Rows = append(res.Rows, vals)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

// Exec runs SQL that returns no rows and reports the affected row count.
func (e *PoolExecutor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	conn, err := e.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	ct, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
