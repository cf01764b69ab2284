package table_test

import (
	"testing"

	"csvtoolkit/pkg/table"
)

func TestAppendNormalizesRows(t *testing.T) {
	tbl := table.New("t.csv", []string{"a", "b"})
	tbl.Append(table.Row{"a": "1", "stray": "x"})

	r := tbl.Rows[0]
	if r["a"] != "1" || r["b"] != "" {
		t.Fatalf("row=%v", r)
	}
	if _, ok := r["stray"]; ok {
		t.Fatalf("undeclared column survived: %v", r)
	}
}

func TestFindHeader(t *testing.T) {
	tbl := table.New("t.csv", []string{"Email", "name"})

	h, ok := tbl.FindHeader("EMAIL")
	if !ok || h != "Email" {
		t.Fatalf("FindHeader(EMAIL)=%q,%v", h, ok)
	}
	if _, ok := tbl.FindHeader("phone"); ok {
		t.Fatalf("FindHeader(phone) unexpectedly matched")
	}
	if !tbl.HasHeader("name") || tbl.HasHeader("Name") {
		t.Fatalf("HasHeader must match exact spelling")
	}
}

func TestPreview(t *testing.T) {
	tbl := table.New("t.csv", []string{"a"})
	for i := 0; i < 3; i++ {
		tbl.Append(table.Row{"a": "x"})
	}
	if got := len(tbl.Preview(2)); got != 2 {
		t.Fatalf("Preview(2)=%d rows", got)
	}
	if got := len(tbl.Preview(10)); got != 3 {
		t.Fatalf("Preview(10)=%d rows", got)
	}
}

func TestKeys(t *testing.T) {
	if table.Key("  A b ") != "A b" {
		t.Fatalf("Key trims only")
	}
	if table.FoldedKey("  A b ") != "a b" {
		t.Fatalf("FoldedKey trims and lowercases")
	}
}
