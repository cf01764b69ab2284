// Package split divides a table's data rows into N part files, each with
// the header row, and bundles them into a zip archive.
package split

import (
	"archive/zip"
	"bytes"
	"fmt"

	pcsv "csvtoolkit/internal/parser/csv"
	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Result is the finished archive plus the part names it contains.
type Result struct {
	Zip   []byte
	Parts []string
}

// Split cuts t into parts ceil-sized chunks named <baseName>_part_<i>.csv.
// Fewer rows than parts yields fewer, non-empty chunks.
func Split(t *table.Table, parts int, baseName string) (*Result, error) {
	if parts <= 1 {
		return nil, apperrors.Inputf("number of splits must be greater than 1, got %d", parts)
	}
	if len(t.Rows) == 0 {
		return nil, apperrors.Inputf("%s: file needs a header and at least one data row", t.Name)
	}

	rowsPerFile := (len(t.Rows) + parts - 1) / parts

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var names []string
	for i := 0; i < parts; i++ {
		start := i * rowsPerFile
		if start >= len(t.Rows) {
			break
		}
		end := start + rowsPerFile
		if end > len(t.Rows) {
			end = len(t.Rows)
		}

		chunk := table.New(t.Name, t.Headers)
		chunk.Rows = t.Rows[start:end]
		data, err := pcsv.Serialize(chunk, nil)
		if err != nil {
			return nil, fmt.Errorf("serialize part %d: %w", i+1, err)
		}

		name := fmt.Sprintf("%s_part_%d.csv", baseName, i+1)
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zip write %s: %w", name, err)
		}
		names = append(names, name)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return &Result{Zip: buf.Bytes(), Parts: names}, nil
}
