// Package table defines the in-memory tabular data model shared by every
// transformation in the toolkit.
//
// A Table is an ordered sequence of rows plus an ordered header list. Cells
// are always strings; "" stands in for an absent value, so every row carries
// exactly the table's declared columns. Tables are built fresh per request,
// live for the duration of one transformation, and are never shared.
package table

import "strings"

// Row maps a column name to its string cell value.
type Row map[string]string

// Table is an ordered set of rows under an ordered header list. Name records
// the source filename for reporting and per-file column suffixes; it carries
// no other meaning.
type Table struct {
	Name    string
	Headers []string
	Rows    []Row
}

// New returns an empty table with the given name and headers.
func New(name string, headers []string) *Table {
	return &Table{Name: name, Headers: headers}
}

// Append adds a row, filling any header the row is missing with "" and
// dropping keys that are not declared headers. This keeps the invariant that
// every row has exactly the table's columns.
func (t *Table) Append(r Row) {
	clean := make(Row, len(t.Headers))
	for _, h := range t.Headers {
		clean[h] = r[h]
	}
	t.Rows = append(t.Rows, clean)
}

// FindHeader resolves name against the table's headers case-insensitively and
// returns the declared spelling. ok is false when no header matches.
func (t *Table) FindHeader(name string) (string, bool) {
	for _, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}

// HasHeader reports whether name matches a declared header exactly.
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Preview returns up to n leading rows, for analyze/preview responses.
func (t *Table) Preview(n int) []Row {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// Key derives a join key from a cell value: surrounding whitespace is
// trimmed. The empty string is a valid but unjoinable key.
func Key(v string) string {
	return strings.TrimSpace(v)
}

// FoldedKey derives a case-insensitive join key: trimmed and lowercased.
// Used by the merge and dedup paths; the two-table join compares keys
// case-sensitively.
func FoldedKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
