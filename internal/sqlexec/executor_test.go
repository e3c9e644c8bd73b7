package sqlexec

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeValue(t *testing.T) {
	uuid := []byte{0x0a, 0x1b, 0x2c, 0x3d, 0x4e, 0x5f, 0x60, 0x71,
		0x82, 0x93, 0xa4, 0xb5, 0xc6, 0xd7, 0xe8, 0x09}

	cases := []struct {
		name string
		in   any
		want any
	}{
		{"uuid bytes", uuid, "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e809"},
		{"uuid array", [16]byte{0x0a, 0x1b, 0x2c, 0x3d, 0x4e, 0x5f, 0x60, 0x71,
			0x82, 0x93, 0xa4, 0xb5, 0xc6, 0xd7, 0xe8, 0x09}, "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e809"},
		{"bytea", []byte{0xde, 0xad}, "\\xdead"},
		{"nil", nil, nil},
		{"string passthrough", "hello", "hello"},
		{"int passthrough", int64(42), int64(42)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeValue(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("normalizeValue(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeValueLeadingZeroUUID(t *testing.T) {
	// Every byte below 0x10 must keep its leading zero or the UUID shrinks.
	got := normalizeValue(make([]byte, 16))
	want := "00000000-0000-0000-0000-000000000000"
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRowMaps(t *testing.T) {
	res := &Result{
		Columns: []string{"id", "name"},
		Rows: [][]any{
			{int64(1), "alice"},
			{int64(2), "bob"},
		},
	}

	got := res.RowMaps()
	want := []map[string]any{
		{"id": int64(1), "name": "alice"},
		{"id": int64(2), "name": "bob"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RowMaps() = %v, want %v", got, want)
	}
}

func TestRowMapsShortRow(t *testing.T) {
	res := &Result{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{int64(1)}},
	}

	got := res.RowMaps()
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0]["a"] != int64(1) {
		t.Errorf("a = %v", got[0]["a"])
	}
	if _, ok := got[0]["b"]; ok {
		t.Errorf("missing column b should not appear, got %v", got[0]["b"])
	}
}

func TestResultMarshalNormalizesRows(t *testing.T) {
	res := Result{
		Columns: []string{"id", "payload"},
		Rows: [][]any{
			{make([]byte, 16), []byte{0x01, 0xff}},
		},
		RowsAffected: 1,
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Columns      []string `json:"columns"`
		Rows         [][]any  `json:"rows"`
		RowsAffected int64    `json:"rows_affected"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Rows[0][0] != "00000000-0000-0000-0000-000000000000" {
		t.Errorf("uuid column = %v", decoded.Rows[0][0])
	}
	if decoded.Rows[0][1] != "\\x01ff" {
		t.Errorf("bytea column = %v", decoded.Rows[0][1])
	}
	if decoded.RowsAffected != 1 {
		t.Errorf("rows_affected = %d", decoded.RowsAffected)
	}
}
