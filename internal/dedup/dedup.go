// Package dedup removes rows whose key, derived from a designated column,
// repeats. Keys are trimmed and case-folded. "Keep last" is expressed as
// reverse, keep-first, reverse back, so one scan direction serves both
// policies. The seen-key set stores xxh3 hashes of the normalized keys
// rather than the keys themselves.
package dedup

import (
	"github.com/zeebo/xxh3"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// ExportMode selects the multi-file output semantics.
type ExportMode string

const (
	// MergedUnique concatenates all files and dedups the stream globally.
	MergedUnique ExportMode = "merged-unique"
	// File2Only outputs the second file's rows whose key never occurs in
	// the first file. Requires exactly two files.
	File2Only ExportMode = "file2-only"
)

// Stats reports the outcome of a dedup pass.
type Stats struct {
	OriginalCount  int
	DuplicateCount int
	UniqueCount    int
}

// Single removes duplicate rows from t by the named key column. The second
// return value lists the dropped rows for reporting. keepFirst retains the
// first occurrence of each key; otherwise the last.
func Single(t *table.Table, keyColumn string, keepFirst bool) (*table.Table, []table.Row, Stats, error) {
	col, ok := t.FindHeader(keyColumn)
	if !ok {
		return nil, nil, Stats{}, apperrors.Mappingf("column %q not found in %s", keyColumn, t.Name)
	}

	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = table.FoldedKey(r[col])
	}
	unique, dups := scan(t.Rows, keys, keepFirst)

	out := table.New(t.Name, t.Headers)
	out.Rows = unique
	return out, dups, Stats{
		OriginalCount:  len(t.Rows),
		DuplicateCount: len(dups),
		UniqueCount:    len(unique),
	}, nil
}

// Multi dedups several files as one stream. columns maps each filename to
// its own key column (names may differ across files). The output carries the
// union of all headers in first-seen order, missing cells empty.
func Multi(files []*table.Table, columns map[string]string, keepFirst bool, mode ExportMode) (*table.Table, []table.Row, Stats, error) {
	if len(files) == 0 {
		return nil, nil, Stats{}, apperrors.Inputf("no files provided")
	}
	if mode == "" {
		mode = MergedUnique
	}
	if mode == File2Only && len(files) != 2 {
		return nil, nil, Stats{}, apperrors.Inputf("the file2-only export requires exactly 2 files, got %d", len(files))
	}

	// Resolve and validate each file's key column up front.
	cols := make([]string, len(files))
	for i, f := range files {
		mapped, ok := columns[f.Name]
		if !ok || mapped == "" {
			return nil, nil, Stats{}, apperrors.Inputf("no column mapping found for file %s", f.Name)
		}
		col, ok := f.FindHeader(mapped)
		if !ok {
			return nil, nil, Stats{}, apperrors.Mappingf("column %q not found in %s", mapped, f.Name)
		}
		cols[i] = col
	}

	if mode == File2Only {
		return file2Only(files[0], files[1], cols[0], cols[1])
	}

	// Union of headers in first-seen order.
	var headers []string
	seenHeader := make(map[string]bool)
	for _, f := range files {
		for _, h := range f.Headers {
			if !seenHeader[h] {
				seenHeader[h] = true
				headers = append(headers, h)
			}
		}
	}

	var rows []table.Row
	var keys []string
	for i, f := range files {
		for _, r := range f.Rows {
			norm := make(table.Row, len(headers))
			for _, h := range headers {
				norm[h] = r[h]
			}
			rows = append(rows, norm)
			keys = append(keys, table.FoldedKey(r[cols[i]]))
		}
	}

	unique, dups := scan(rows, keys, keepFirst)
	out := table.New("merged", headers)
	out.Rows = unique
	return out, dups, Stats{
		OriginalCount:  len(rows),
		DuplicateCount: len(dups),
		UniqueCount:    len(unique),
	}, nil
}

// file2Only keeps the rows of second whose key does not occur anywhere in
// first. Duplicates inside first are irrelevant here.
func file2Only(first, second *table.Table, firstCol, secondCol string) (*table.Table, []table.Row, Stats, error) {
	blocked := make(map[uint64]struct{}, len(first.Rows))
	for _, r := range first.Rows {
		blocked[xxh3.HashString(table.FoldedKey(r[firstCol]))] = struct{}{}
	}

	out := table.New(second.Name, second.Headers)
	var dups []table.Row
	for _, r := range second.Rows {
		if _, hit := blocked[xxh3.HashString(table.FoldedKey(r[secondCol]))]; hit {
			dups = append(dups, r)
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, dups, Stats{
		OriginalCount:  len(second.Rows),
		DuplicateCount: len(dups),
		UniqueCount:    len(out.Rows),
	}, nil
}

// scan is the shared keep-first pass. For keep-last the stream is walked in
// reverse and both result slices are reversed back afterwards.
func scan(rows []table.Row, keys []string, keepFirst bool) (unique, dups []table.Row) {
	seen := make(map[uint64]struct{}, len(rows))
	visit := func(i int) {
		h := xxh3.HashString(keys[i])
		if _, hit := seen[h]; hit {
			dups = append(dups, rows[i])
			return
		}
		seen[h] = struct{}{}
		unique = append(unique, rows[i])
	}

	if keepFirst {
		for i := range rows {
			visit(i)
		}
		return unique, dups
	}
	for i := len(rows) - 1; i >= 0; i-- {
		visit(i)
	}
	reverse(unique)
	reverse(dups)
	return unique, dups
}

func reverse(rows []table.Row) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
