// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlbuild

// Schema introspection is a two-step sequence: the column query runs first,
// and only when it returns rows does the primary-key query run. Zero columns
// means the table does not exist in that schema, which is a not-found
// condition rather than an error, and the second query must not execute.

// TablesPlan lists the tables of a schema from the catalog, ordered by name
// so repeated calls against an unchanged catalog yield identical sequences.
func TablesPlan(schema string) Plan {
	return Plan{
		SQL: `SELECT table_name
			FROM information_schema.tables
			WHERE table_schema = $1 AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		Args: []any{schema},
	}
}

// ColumnsPlan fetches column metadata for schema.table in ordinal order.
func ColumnsPlan(table, schema string) Plan {
	return Plan{
		SQL: `SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`,
		Args: []any{schema, table},
	}
}

// PrimaryKeysPlan fetches the primary key columns of a relation. The bound
// parameter is the fully qualified schema.table name, cast to regclass by the
// server. Identifiers must be validated before the qualified name is formed.
func PrimaryKeysPlan(table, schema string) Plan {
	return Plan{
		SQL: `SELECT a.attname
			FROM pg_index i
			JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
			WHERE i.indrelid = $1::regclass AND i.indisprimary
			ORDER BY a.attnum`,
		Args: []any{qualify(schema, table)},
	}
}

// Column describes one column of a table, as reported by ColumnsPlan.
type Column struct {
	Name      string  `json:"name"`
	DataType  string  `json:"dataType"`
	Nullable  bool    `json:"nullable"`
	Default   *string `json:"default,omitempty"`
	MaxLength *int64  `json:"maxLength,omitempty"`
}

// TableDescriptor combines both introspection result sets. It is built per
// request and never cached; a stale descriptor is worse than a second pair of
// catalog queries.
type TableDescriptor struct {
	Table       string   `json:"table"`
	Schema      string   `json:"schema"`
	Columns     []Column `json:"columns"`
	PrimaryKeys []string `json:"primaryKeys"`
}
