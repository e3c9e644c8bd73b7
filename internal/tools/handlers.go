// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

import (
	"context"
	"fmt"

	"pgbridge/cli/internal/sqlbuild"
	"pgbridge/cli/internal/sqlexec"
)

// DefaultSchema is used when a tool call does not name a schema.
const DefaultSchema = "public"

// NewDatabaseRegistry builds the registry of database tools bound to exec.
func NewDatabaseRegistry(exec sqlexec.Executor) *Registry {
	r := NewRegistry()
	registerQuery(r, exec)
	registerGetTables(r, exec)
	registerGetTableSchema(r, exec)
	registerInsertRecord(r, exec)
	registerUpdateRecord(r, exec)
	registerDeleteRecord(r, exec)
	return r
}

func schemaArg(args map[string]any) string {
	if s := stringArg(args, "schema"); s != "" {
		return s
	}
	return DefaultSchema
}

// writeResult is the common payload for insert/update/delete.
type writeResult struct {
	RowCount  int64            `json:"rowCount"`
	Returning []map[string]any `json:"returning,omitempty"`
}

// runPlan executes a write plan, going through Query when a RETURNING clause
// asks for rows back and Exec otherwise.
func runPlan(ctx context.Context, exec sqlexec.Executor, plan sqlbuild.Plan, wantRows bool) (*writeResult, error) {
	if wantRows {
		res, err := exec.Query(ctx, plan.SQL, plan.Args...)
		if err != nil {
			return nil, err
		}
		rows := res.RowMaps()
		count := res.RowsAffected
		if count == 0 {
			count = int64(len(rows))
		}
		return &writeResult{RowCount: count, Returning: rows}, nil
	}
	count, err := exec.Exec(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return nil, err
	}
	return &writeResult{RowCount: count}, nil
}

// registerQuery exposes raw SQL pass-through. The statement and parameters
// reach the executor verbatim, with no rewriting or sanitizing: arbitrary SQL
// execution is this tool's contract and its trust boundary. Deployments must
// gate access to it upstream; this layer will not.
func registerQuery(r *Registry, exec sqlexec.Executor) {
	r.Register(&Tool{
		Name:        "query",
		Description: "Run an arbitrary SQL statement with optional positional parameters ($1, $2, ...). The SQL is executed verbatim; access to this tool implies full database access.",
		Args: []Arg{
			{Name: "sql", Required: true, Description: "SQL text to execute"},
			{Name: "params", Description: "Positional parameter values bound to $1..$n"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			res, err := exec.Query(ctx, stringArg(args, "sql"), listArg(args, "params")...)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"columns":  res.Columns,
				"rows":     res.Rows,
				"rowCount": res.RowsAffected,
			}, nil
		},
	})
}

func registerGetTables(r *Registry, exec sqlexec.Executor) {
	r.Register(&Tool{
		Name:        "get_tables",
		Description: "List the tables of a schema, ordered by name.",
		Args: []Arg{
			{Name: "schema", Description: "Schema name (default public)"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			schema := schemaArg(args)
			if !sqlbuild.ValidIdent(schema) {
				return nil, fmt.Errorf("invalid identifier %q", schema)
			}
			plan := sqlbuild.TablesPlan(schema)
			res, err := exec.Query(ctx, plan.SQL, plan.Args...)
			if err != nil {
				return nil, err
			}
			tables := make([]string, 0, len(res.Rows))
			for _, row := range res.Rows {
				if len(row) > 0 {
					if name, ok := row[0].(string); ok {
						tables = append(tables, name)
					}
				}
			}
			return map[string]any{"schema": schema, "tables": tables}, nil
		},
	})
}

func registerGetTableSchema(r *Registry, exec sqlexec.Executor) {
	r.Register(&Tool{
		Name:        "get_table_schema",
		Description: "Describe a table: columns in ordinal order plus primary key columns.",
		Args: []Arg{
			{Name: "table", Required: true, Description: "Table name"},
			{Name: "schema", Description: "Schema name (default public)"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			table := stringArg(args, "table")
			schema := schemaArg(args)
			if err := sqlbuild.CheckIdents(table, schema); err != nil {
				return nil, err
			}

			colPlan := sqlbuild.ColumnsPlan(table, schema)
			colRes, err := exec.Query(ctx, colPlan.SQL, colPlan.Args...)
			if err != nil {
				return nil, err
			}
			// Zero columns means the table does not exist in this schema.
			// That is a not-found condition, not an error, and the
			// primary-key lookup must not run.
			if len(colRes.Rows) == 0 {
				return map[string]any{"found": false, "table": table, "schema": schema}, nil
			}

			desc := &sqlbuild.TableDescriptor{Table: table, Schema: schema}
			for _, row := range colRes.Rows {
				desc.Columns = append(desc.Columns, columnFromRow(row))
			}

			pkPlan := sqlbuild.PrimaryKeysPlan(table, schema)
			pkRes, err := exec.Query(ctx, pkPlan.SQL, pkPlan.Args...)
			if err != nil {
				return nil, err
			}
			for _, row := range pkRes.Rows {
				if len(row) > 0 {
					if name, ok := row[0].(string); ok {
						desc.PrimaryKeys = append(desc.PrimaryKeys, name)
					}
				}
			}

			return map[string]any{
				"found":       true,
				"table":       desc.Table,
				"schema":      desc.Schema,
				"columns":     desc.Columns,
				"primaryKeys": desc.PrimaryKeys,
			}, nil
		},
	})
}

// columnFromRow maps one ColumnsPlan result row into a Column. Row layout:
// column_name, data_type, is_nullable, column_default, character_maximum_length.
func columnFromRow(row []any) sqlbuild.Column {
	col := sqlbuild.Column{}
	if len(row) > 0 {
		col.Name, _ = row[0].(string)
	}
	if len(row) > 1 {
		col.DataType, _ = row[1].(string)
	}
	if len(row) > 2 {
		if s, ok := row[2].(string); ok {
			col.Nullable = s == "YES"
		}
	}
	if len(row) > 3 && row[3] != nil {
		if s, ok := row[3].(string); ok {
			col.Default = &s
		}
	}
	if len(row) > 4 && row[4] != nil {
		switch v := row[4].(type) {
		case int64:
			col.MaxLength = &v
		case int32:
			n := int64(v)
			col.MaxLength = &n
		case float64:
			n := int64(v)
			col.MaxLength = &n
		}
	}
	return col
}

func registerInsertRecord(r *Registry, exec sqlexec.Executor) {
	r.Register(&Tool{
		Name:        "insert_record",
		Description: "Insert one record. Values are parameterized; column names must be plain identifiers.",
		Args: []Arg{
			{Name: "table", Required: true, Description: "Table name"},
			{Name: "data", Required: true, Description: "Column-to-value mapping"},
			{Name: "schema", Description: "Schema name (default public)"},
			{Name: "returning", Description: "Columns to return from the inserted row"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			returning := stringListArg(args, "returning")
			plan, err := sqlbuild.Insert(stringArg(args, "table"), schemaArg(args), mapArg(args, "data"), returning)
			if err != nil {
				return nil, err
			}
			return runPlan(ctx, exec, plan, len(returning) > 0)
		},
	})
}

func registerUpdateRecord(r *Registry, exec sqlexec.Executor) {
	r.Register(&Tool{
		Name:        "update_record",
		Description: "Update records matching equality conditions joined by AND. A NULL condition value never matches.",
		Args: []Arg{
			{Name: "table", Required: true, Description: "Table name"},
			{Name: "data", Required: true, Description: "Column-to-value mapping to set"},
			{Name: "conditions", Required: true, Description: "Equality conditions selecting the rows"},
			{Name: "schema", Description: "Schema name (default public)"},
			{Name: "returning", Description: "Columns to return from updated rows"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			returning := stringListArg(args, "returning")
			plan, err := sqlbuild.Update(stringArg(args, "table"), schemaArg(args),
				mapArg(args, "data"), mapArg(args, "conditions"), returning)
			if err != nil {
				return nil, err
			}
			return runPlan(ctx, exec, plan, len(returning) > 0)
		},
	})
}

func registerDeleteRecord(r *Registry, exec sqlexec.Executor) {
	r.Register(&Tool{
		Name:        "delete_record",
		Description: "Delete records matching equality conditions joined by AND.",
		Args: []Arg{
			{Name: "table", Required: true, Description: "Table name"},
			{Name: "conditions", Required: true, Description: "Equality conditions selecting the rows"},
			{Name: "schema", Description: "Schema name (default public)"},
			{Name: "returning", Description: "Columns to return from deleted rows"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			returning := stringListArg(args, "returning")
			plan, err := sqlbuild.Delete(stringArg(args, "table"), schemaArg(args),
				mapArg(args, "conditions"), returning)
			if err != nil {
				return nil, err
			}
			return runPlan(ctx, exec, plan, len(returning) > 0)
		},
	})
}
