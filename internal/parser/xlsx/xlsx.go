// Package xlsx reads the first sheet of an Excel workbook into a Table so
// spreadsheet uploads share the tabular pipeline with delimited text. Only
// ingestion is supported; results are always serialized as delimited text.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Parse reads an .xlsx workbook from r and converts its first sheet into a
// Table named name. The first sheet row is the header; empty header cells
// get synthesized "col_N" names. Rows shorter than the header are padded
// with "" (trailing empty cells are routinely absent in sheet data).
func Parse(r io.Reader, name string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, name+": open workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, apperrors.Parsef("%s: workbook has no sheets", name)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, name+": read sheet")
	}
	if len(rows) == 0 {
		return nil, apperrors.Parsef("%s: no header row present", name)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("col_%d", i)
		}
		headers[i] = h
	}

	t := table.New(name, headers)
	for _, row := range rows[1:] {
		if len(row) > len(headers) {
			row = row[:len(headers)]
		}
		blank := true
		rec := make(table.Row, len(headers))
		for i, h := range headers {
			var v string
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				blank = false
			}
			rec[h] = v
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
