package dedup_test

import (
	"testing"

	"csvtoolkit/internal/dedup"
	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

func mkTable(name string, headers []string, rows ...table.Row) *table.Table {
	t := table.New(name, headers)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestSingleKeepFirst(t *testing.T) {
	in := mkTable("a.csv", []string{"email", "n"},
		table.Row{"email": "abc", "n": "1"},
		table.Row{"email": " ABC ", "n": "2"},
		table.Row{"email": "xyz", "n": "3"},
	)
	out, dups, stats, err := dedup.Single(in, "email", true)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows=%d want 2", len(out.Rows))
	}
	// Keys fold case and trim, so " ABC " duplicates "abc".
	if out.Rows[0]["n"] != "1" || out.Rows[1]["n"] != "3" {
		t.Fatalf("kept=%v", out.Rows)
	}
	if len(dups) != 1 || dups[0]["n"] != "2" {
		t.Fatalf("dups=%v", dups)
	}
	if stats.OriginalCount != 3 || stats.DuplicateCount != 1 || stats.UniqueCount != 2 {
		t.Fatalf("stats=%+v", stats)
	}
}

func TestSingleKeepLast(t *testing.T) {
	in := mkTable("a.csv", []string{"email", "n"},
		table.Row{"email": "abc", "n": "1"},
		table.Row{"email": "ABC", "n": "2"},
		table.Row{"email": "xyz", "n": "3"},
	)
	out, _, _, err := dedup.Single(in, "email", false)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows=%d want 2", len(out.Rows))
	}
	// Keep-last preserves original row order for the survivors.
	if out.Rows[0]["n"] != "2" || out.Rows[1]["n"] != "3" {
		t.Fatalf("kept=%v", out.Rows)
	}
}

func TestSingleIdempotent(t *testing.T) {
	in := mkTable("a.csv", []string{"k"},
		table.Row{"k": "a"},
		table.Row{"k": "A"},
		table.Row{"k": "b"},
	)
	once, _, _, err := dedup.Single(in, "k", true)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, _, stats, err := dedup.Single(once, "k", true)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if stats.DuplicateCount != 0 || len(twice.Rows) != len(once.Rows) {
		t.Fatalf("second pass removed rows: %+v", stats)
	}
}

func TestSingleMissingColumn(t *testing.T) {
	in := mkTable("a.csv", []string{"k"}, table.Row{"k": "a"})
	_, _, _, err := dedup.Single(in, "nope", true)
	if !apperrors.IsKind(err, apperrors.KindMapping) {
		t.Fatalf("kind=%v want mapping", apperrors.KindOf(err))
	}
}

func TestMultiMergedUnique(t *testing.T) {
	a := mkTable("a.csv", []string{"email", "name"},
		table.Row{"email": "x@y.com", "name": "Xavier"},
		table.Row{"email": "z@y.com", "name": "Zoe"},
	)
	b := mkTable("b.csv", []string{"mail", "phone"},
		table.Row{"mail": "X@Y.COM", "phone": "555"},
		table.Row{"mail": "w@y.com", "phone": "111"},
	)
	columns := map[string]string{"a.csv": "email", "b.csv": "mail"}
	out, dups, stats, err := dedup.Multi([]*table.Table{a, b}, columns, true, dedup.MergedUnique)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if len(out.Rows) != 3 {
		t.Fatalf("rows=%d want 3", len(out.Rows))
	}
	if len(dups) != 1 || stats.DuplicateCount != 1 {
		t.Fatalf("dups=%v stats=%+v", dups, stats)
	}
	// Union of headers in first-seen order across files.
	want := []string{"email", "name", "mail", "phone"}
	for i, h := range want {
		if out.Headers[i] != h {
			t.Fatalf("headers=%v want %v", out.Headers, want)
		}
	}
}

func TestMultiFile2Only(t *testing.T) {
	a := mkTable("a.csv", []string{"email"},
		table.Row{"email": "x@y.com"},
	)
	b := mkTable("b.csv", []string{"email"},
		table.Row{"email": "X@Y.COM"},
		table.Row{"email": "w@y.com"},
	)
	columns := map[string]string{"a.csv": "email", "b.csv": "email"}
	out, _, _, err := dedup.Multi([]*table.Table{a, b}, columns, true, dedup.File2Only)
	if err != nil {
		t.Fatalf("dedup: %v", err)
	}
	// Only second-file rows whose key is absent from the first survive.
	if len(out.Rows) != 1 || out.Rows[0]["email"] != "w@y.com" {
		t.Fatalf("rows=%v", out.Rows)
	}
}

func TestMultiValidation(t *testing.T) {
	a := mkTable("a.csv", []string{"email"}, table.Row{"email": "x"})
	b := mkTable("b.csv", []string{"email"}, table.Row{"email": "y"})
	c := mkTable("c.csv", []string{"email"}, table.Row{"email": "z"})

	_, _, _, err := dedup.Multi([]*table.Table{a, b}, map[string]string{"a.csv": "email"}, true, dedup.MergedUnique)
	if !apperrors.IsKind(err, apperrors.KindInput) {
		t.Fatalf("missing mapping: kind=%v want input", apperrors.KindOf(err))
	}

	cols := map[string]string{"a.csv": "email", "b.csv": "nope"}
	_, _, _, err = dedup.Multi([]*table.Table{a, b}, cols, true, dedup.MergedUnique)
	if !apperrors.IsKind(err, apperrors.KindMapping) {
		t.Fatalf("missing column: kind=%v want mapping", apperrors.KindOf(err))
	}

	all := map[string]string{"a.csv": "email", "b.csv": "email", "c.csv": "email"}
	_, _, _, err = dedup.Multi([]*table.Table{a, b, c}, all, true, dedup.File2Only)
	if !apperrors.IsKind(err, apperrors.KindInput) {
		t.Fatalf("file2-only with 3 files: kind=%v want input", apperrors.KindOf(err))
	}
}
