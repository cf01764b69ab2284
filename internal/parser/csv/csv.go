// Package csv turns raw delimited text into Tables and Tables back into
// delimited text. Parsing is tolerant of rows that are shorter than the
// header (they are padded with empty strings) but rejects rows that are
// wider; serialization quotes a field iff it contains the delimiter, a
// double quote, or a newline, doubling internal quotes.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Options configures parsing. All fields are optional; zero values get
// sensible defaults.
type Options struct {
	// Comma is the field delimiter. ',' when zero.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from every cell.
	TrimSpace bool
}

// Parser parses delimited text according to Options. A Parser may be reused
// across inputs but is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse reads all of r into a Table named name. The first row is the header;
// an input with no header row fails. Rows narrower than the header are
// padded with "", rows wider than the header fail the whole parse.
func (p *Parser) Parse(r io.Reader, name string) (*table.Table, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, apperrors.Parsef("%s: no header row present", name)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, fmt.Sprintf("%s: read header", name))
	}
	headers := normalizeHeaders(head)

	t := table.New(name, headers)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindParse, err, fmt.Sprintf("%s: line %d", name, line))
		}
		if len(row) > len(headers) {
			return nil, apperrors.Parsef("%s: line %d has %d fields, header has %d", name, line, len(row), len(headers))
		}
		if isBlankRow(row) {
			continue
		}
		rec := make(table.Row, len(headers))
		for i, h := range headers {
			var v string
			if i < len(row) {
				v = row[i]
			}
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			rec[h] = v
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Serialize writes the table as delimited text with headers as the first
// line, restricted to and ordered by headerOrder. A nil headerOrder uses the
// table's own header order.
func Serialize(t *table.Table, headerOrder []string) ([]byte, error) {
	if headerOrder == nil {
		headerOrder = t.Headers
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(headerOrder); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	fields := make([]string, len(headerOrder))
	for _, row := range t.Rows {
		for i, h := range headerOrder {
			fields[i] = row[h]
		}
		if err := w.Write(fields); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// normalizeHeaders trims each header cell, strips a UTF-8 BOM from the first
// one, and synthesizes "col_N" names for empty cells.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return res
}

// isBlankRow reports whether every physical field is empty, so the row can
// be skipped rather than materialized as an all-"" record.
func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
