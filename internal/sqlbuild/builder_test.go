// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlbuild

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"testing"
)

func TestInsertPlan(t *testing.T) {
	plan, err := Insert("users", "public", map[string]any{
		"name":  "x",
		"email": "x@example.com",
	}, []string{"id"})
	if err != nil {
		t.Fatal(err)
	}

	want := "INSERT INTO public.users (email, name) VALUES ($1, $2) RETURNING id"
	if plan.SQL != want {
		t.Errorf("SQL = %q\nwant  %q", plan.SQL, want)
	}
	if !reflect.DeepEqual(plan.Args, []any{"x@example.com", "x"}) {
		t.Errorf("Args = %v", plan.Args)
	}
}

func TestInsertDeterministic(t *testing.T) {
	data := map[string]any{"c": 3, "a": 1, "b": 2}
	first, err := Insert("t", "public", data, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := Insert("t", "public", data, nil)
		if err != nil {
			t.Fatal(err)
		}
		if again.SQL != first.SQL || !reflect.DeepEqual(again.Args, first.Args) {
			t.Fatalf("plan varies across runs: %q vs %q", again.SQL, first.SQL)
		}
	}
}

func TestUpdateOffsetLaw(t *testing.T) {
	// For k data entries and m conditions, the parameter list has length k+m
	// and $(k+1) binds the first condition value.
	data := map[string]any{"name": "n", "email": "e", "age": 30}
	conditions := map[string]any{"id": 7, "tenant": "acme"}

	plan, err := Update("users", "app", data, conditions, nil)
	if err != nil {
		t.Fatal(err)
	}

	k, m := len(data), len(conditions)
	if len(plan.Args) != k+m {
		t.Fatalf("len(Args) = %d, want %d", len(plan.Args), k+m)
	}

	want := "UPDATE app.users SET age = $1, email = $2, name = $3 WHERE id = $4 AND tenant = $5"
	if plan.SQL != want {
		t.Errorf("SQL = %q\nwant  %q", plan.SQL, want)
	}
	// $(k+1) is the first condition value (sorted condition order: id first).
	if plan.Args[k] != 7 {
		t.Errorf("Args[%d] = %v, want 7", k, plan.Args[k])
	}
}

func TestDeletePlanStartsAtOne(t *testing.T) {
	plan, err := Delete("events", "public", map[string]any{"id": 1}, []string{"id", "kind"})
	if err != nil {
		t.Fatal(err)
	}
	want := "DELETE FROM public.events WHERE id = $1 RETURNING id, kind"
	if plan.SQL != want {
		t.Errorf("SQL = %q\nwant  %q", plan.SQL, want)
	}
	if !reflect.DeepEqual(plan.Args, []any{1}) {
		t.Errorf("Args = %v", plan.Args)
	}
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

func TestPlaceholdersContiguousAndMatchArgs(t *testing.T) {
	plans := []struct {
		name string
		plan func() (Plan, error)
	}{
		{"insert", func() (Plan, error) {
			return Insert("t", "s", map[string]any{"a": 1, "b": 2, "c": 3}, nil)
		}},
		{"update", func() (Plan, error) {
			return Update("t", "s", map[string]any{"a": 1, "b": 2}, map[string]any{"x": 9}, nil)
		}},
		{"delete", func() (Plan, error) {
			return Delete("t", "s", map[string]any{"x": 9, "y": 8}, nil)
		}},
	}
	for _, tt := range plans {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := tt.plan()
			if err != nil {
				t.Fatal(err)
			}
			seen := map[int]int{}
			for _, m := range placeholderPattern.FindAllStringSubmatch(plan.SQL, -1) {
				n, _ := strconv.Atoi(m[1])
				seen[n]++
			}
			if len(seen) != len(plan.Args) {
				t.Fatalf("%d distinct placeholders for %d args\n%s", len(seen), len(plan.Args), plan.SQL)
			}
			for i := 1; i <= len(plan.Args); i++ {
				if seen[i] != 1 {
					t.Errorf("placeholder $%d occurs %d times", i, seen[i])
				}
			}
		})
	}
}

func TestIdentifierValidation(t *testing.T) {
	tests := []struct {
		ident string
		ok    bool
	}{
		{"users", true},
		{"_private", true},
		{"Users2", true},
		{"user name", false},
		{"users;drop table x", false},
		{`users"`, false},
		{"1table", false},
		{"", false},
		{"sch.tab", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.ident), func(t *testing.T) {
			if got := ValidIdent(tt.ident); got != tt.ok {
				t.Errorf("ValidIdent(%q) = %v, want %v", tt.ident, got, tt.ok)
			}
		})
	}
}

func TestBuildersRejectBadIdentifiers(t *testing.T) {
	if _, err := Insert("users; --", "public", map[string]any{"a": 1}, nil); err == nil {
		t.Error("bad table accepted")
	}
	if _, err := Insert("users", "public", map[string]any{"a b": 1}, nil); err == nil {
		t.Error("bad column accepted")
	}
	if _, err := Delete("users", "public", map[string]any{"id": 1}, []string{"id)"}); err == nil {
		t.Error("bad returning column accepted")
	}
	if _, err := Update("users", "pub lic", map[string]any{"a": 1}, map[string]any{"id": 1}, nil); err == nil {
		t.Error("bad schema accepted")
	}
}

func TestUpdateRequiresDataAndConditions(t *testing.T) {
	if _, err := Update("t", "s", nil, map[string]any{"id": 1}, nil); err == nil {
		t.Error("empty data accepted")
	}
	if _, err := Update("t", "s", map[string]any{"a": 1}, nil, nil); err == nil {
		t.Error("empty conditions accepted")
	}
	if _, err := Delete("t", "s", nil, nil); err == nil {
		t.Error("unconditional delete accepted")
	}
}

func TestIntrospectionPlans(t *testing.T) {
	tp := TablesPlan("public")
	if !reflect.DeepEqual(tp.Args, []any{"public"}) {
		t.Errorf("TablesPlan args = %v", tp.Args)
	}

	cp := ColumnsPlan("users", "app")
	if !reflect.DeepEqual(cp.Args, []any{"app", "users"}) {
		t.Errorf("ColumnsPlan args = %v (schema must bind $1, table $2)", cp.Args)
	}

	pp := PrimaryKeysPlan("users", "app")
	if !reflect.DeepEqual(pp.Args, []any{"app.users"}) {
		t.Errorf("PrimaryKeysPlan args = %v (qualified name must bind $1)", pp.Args)
	}
}
