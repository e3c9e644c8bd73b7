// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlbuild constructs parameterized PostgreSQL statements for the
// record tools and the two-step schema introspection sequence.
//
// Placeholders are 1-based, contiguous, and in declaration order: every $n in
// the generated SQL has exactly one matching entry in Plan.Args. Only values
// are parameterized. Table, schema, and column names are interpolated into
// the SQL text unescaped, which is why every identifier must pass ValidIdent
// before a plan is built - that allow-list is the only defense at this layer,
// an explicit trust boundary rather than full SQL escaping.
package sqlbuild

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Plan is a parameterized statement ready for the executor: SQL text plus the
// ordered positional parameter list.
type Plan struct {
	SQL  string
	Args []any
}

// identPattern matches identifiers safe to interpolate into SQL text.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is safe to use as a table, schema, or
// column identifier. Callers must check every identifier before building a
// plan; values never go through this path, only structural tokens do.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// CheckIdents validates a set of identifiers and returns the first offender.
func CheckIdents(names ...string) error {
	for _, n := range names {
		if !ValidIdent(n) {
			return fmt.Errorf("invalid identifier %q", n)
		}
	}
	return nil
}

// qualify joins schema and table into a schema-qualified relation name.
func qualify(schema, table string) string {
	return schema + "." + table
}

// sortedKeys returns data's keys in a deterministic order. Go map iteration
// is randomized, and the plan must come out identical for identical input,
// so columns are emitted in sorted order.
func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// returningClause renders a RETURNING clause from literal column identifiers,
// or an empty string when none are requested. Identifiers must already be
// validated by the caller.
func returningClause(returning []string) string {
	if len(returning) == 0 {
		return ""
	}
	return " RETURNING " + strings.Join(returning, ", ")
}

// Insert builds an INSERT for data into schema.table. Columns and values are
// derived from data in the same (sorted) iteration order, with $1..$n mapping
// one-to-one to the value list.
func Insert(table, schema string, data map[string]any, returning []string) (Plan, error) {
	if err := checkStatementIdents(table, schema, data, nil, returning); err != nil {
		return Plan{}, err
	}
	if len(data) == 0 {
		return Plan{}, fmt.Errorf("insert into %s: no columns", qualify(schema, table))
	}

	cols := sortedKeys(data)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[c]
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		qualify(schema, table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		returningClause(returning))
	return Plan{SQL: sql, Args: args}, nil
}

// Update builds an UPDATE for schema.table. SET placeholders occupy $1..$k in
// sorted data order; WHERE placeholders continue at $(k+1)..$(k+m) in sorted
// condition order, and the parameter list concatenates the two value sets in
// exactly that order.
//
// Conditions are equality joined by AND. Equality against NULL never matches
// in SQL; that is a documented limitation of this builder, not defended
// against here.
func Update(table, schema string, data, conditions map[string]any, returning []string) (Plan, error) {
	if err := checkStatementIdents(table, schema, data, conditions, returning); err != nil {
		return Plan{}, err
	}
	if len(data) == 0 {
		return Plan{}, fmt.Errorf("update %s: no columns to set", qualify(schema, table))
	}
	if len(conditions) == 0 {
		return Plan{}, fmt.Errorf("update %s: no conditions", qualify(schema, table))
	}

	dataCols := sortedKeys(data)
	sets := make([]string, len(dataCols))
	args := make([]any, 0, len(data)+len(conditions))
	for i, c := range dataCols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
		args = append(args, data[c])
	}

	condCols := sortedKeys(conditions)
	wheres := make([]string, len(condCols))
	for i, c := range condCols {
		// Offset arithmetic: condition placeholders continue after the k
		// data placeholders.
		wheres[i] = fmt.Sprintf("%s = $%d", c, len(dataCols)+i+1)
		args = append(args, conditions[c])
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s%s",
		qualify(schema, table),
		strings.Join(sets, ", "),
		strings.Join(wheres, " AND "),
		returningClause(returning))
	return Plan{SQL: sql, Args: args}, nil
}

// Delete builds a DELETE for schema.table with condition placeholders
// starting at $1 in sorted condition order.
func Delete(table, schema string, conditions map[string]any, returning []string) (Plan, error) {
	if err := checkStatementIdents(table, schema, nil, conditions, returning); err != nil {
		return Plan{}, err
	}
	if len(conditions) == 0 {
		return Plan{}, fmt.Errorf("delete from %s: no conditions", qualify(schema, table))
	}

	condCols := sortedKeys(conditions)
	wheres := make([]string, len(condCols))
	args := make([]any, len(condCols))
	for i, c := range condCols {
		wheres[i] = fmt.Sprintf("%s = $%d", c, i+1)
		args[i] = conditions[c]
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s%s",
		qualify(schema, table),
		strings.Join(wheres, " AND "),
		returningClause(returning))
	return Plan{SQL: sql, Args: args}, nil
}

// checkStatementIdents validates every structural identifier of a statement.
func checkStatementIdents(table, schema string, data, conditions map[string]any, returning []string) error {
	if err := CheckIdents(table, schema); err != nil {
		return err
	}
	for k := range data {
		if !ValidIdent(k) {
			return fmt.Errorf("invalid column identifier %q", k)
		}
	}
	for k := range conditions {
		if !ValidIdent(k) {
			return fmt.Errorf("invalid condition identifier %q", k)
		}
	}
	return CheckIdents(returning...)
}
