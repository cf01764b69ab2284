// Package join implements the relational join between two tables, the
// N-file VLOOKUP-style merge on a shared key column, and the classic
// return-column VLOOKUP against a lookup table.
//
// Key comparison differs by protocol and is contractual: the two-table join
// compares trimmed keys case-sensitively, while the merge path folds case.
package join

import (
	"fmt"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Type selects the relational join semantics.
type Type string

const (
	Inner Type = "inner"
	Left  Type = "left"
	Right Type = "right"
	Outer Type = "outer"
)

// Options configures a two-table join.
type Options struct {
	// LeftKey / RightKey name the key columns; resolved against each
	// table's headers case-insensitively.
	LeftKey  string
	RightKey string

	// Kind of join to perform.
	Kind Type

	// PrefixColumns prepends "left_" / "right_" to non-key output columns.
	PrefixColumns bool
}

// Stats summarizes a join for the preview step.
type Stats struct {
	Matched        int
	UnmatchedLeft  int
	UnmatchedRight int
	Total          int
}

// lookup is a per-request multi-map from join key to rows, insertion order
// preserved both per key and across keys.
type lookup struct {
	rows  map[string][]table.Row
	order []string
}

func buildLookup(t *table.Table, keyCol string) *lookup {
	l := &lookup{rows: make(map[string][]table.Row, len(t.Rows))}
	for _, r := range t.Rows {
		k := table.Key(r[keyCol])
		if k == "" {
			// Empty keys never participate in matching.
			continue
		}
		if _, seen := l.rows[k]; !seen {
			l.order = append(l.order, k)
		}
		l.rows[k] = append(l.rows[k], r)
	}
	return l
}

// Join performs an inner/left/right/outer join of left and right on their
// key columns. Output columns are all left headers (key column unprefixed)
// followed by all right headers except the right key column. Rows with an
// empty key never match but survive where left/right/outer semantics keep
// the unmatched side.
func Join(left, right *table.Table, opt Options) (*table.Table, Stats, error) {
	leftKey, ok := left.FindHeader(opt.LeftKey)
	if !ok {
		return nil, Stats{}, apperrors.Mappingf("join column %q not found in %s", opt.LeftKey, left.Name)
	}
	rightKey, ok := right.FindHeader(opt.RightKey)
	if !ok {
		return nil, Stats{}, apperrors.Mappingf("join column %q not found in %s", opt.RightKey, right.Name)
	}

	switch opt.Kind {
	case Inner, Left, Right, Outer:
	default:
		return nil, Stats{}, apperrors.Inputf("unsupported join type %q", opt.Kind)
	}

	leftLookup := buildLookup(left, leftKey)
	rightLookup := buildLookup(right, rightKey)

	// Output header plan: each output column knows its source side and
	// source column. The key column keeps the left table's spelling and is
	// never prefixed.
	type outCol struct {
		name    string
		fromTop bool // true = left table
		src     string
	}
	var cols []outCol
	for _, h := range left.Headers {
		name := h
		if opt.PrefixColumns && h != leftKey {
			name = "left_" + h
		}
		cols = append(cols, outCol{name: name, fromTop: true, src: h})
	}
	for _, h := range right.Headers {
		if h == rightKey {
			continue
		}
		name := h
		if opt.PrefixColumns {
			name = "right_" + h
		}
		cols = append(cols, outCol{name: name, fromTop: false, src: h})
	}
	// The key column stays unprefixed even when prefixing is on.
	keyOutCol := leftKey

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.name
	}
	out := table.New("", headers)

	emit := func(lr, rr table.Row) {
		row := make(table.Row, len(cols))
		for _, c := range cols {
			switch {
			case c.fromTop && lr != nil:
				row[c.name] = lr[c.src]
			case !c.fromTop && rr != nil:
				row[c.name] = rr[c.src]
			default:
				row[c.name] = ""
			}
		}
		if lr == nil && rr != nil {
			// Right-only rows carry their key in the output key column.
			row[keyOutCol] = rr[rightKey]
		}
		out.Rows = append(out.Rows, row)
	}

	var stats Stats

	// Unmatched counts are reported for both sides regardless of join type,
	// so the preview can explain what each type would drop.
	for _, r := range left.Rows {
		k := table.Key(r[leftKey])
		if k == "" || len(rightLookup.rows[k]) == 0 {
			stats.UnmatchedLeft++
		}
	}
	for _, r := range right.Rows {
		k := table.Key(r[rightKey])
		if k == "" || len(leftLookup.rows[k]) == 0 {
			stats.UnmatchedRight++
		}
	}

	emitLeftSide := func(keepUnmatched bool) {
		for _, lr := range left.Rows {
			k := table.Key(lr[leftKey])
			matches := rightLookup.rows[k]
			if k == "" || len(matches) == 0 {
				if keepUnmatched {
					emit(lr, nil)
				}
				continue
			}
			for _, rr := range matches {
				emit(lr, rr)
				stats.Matched++
			}
		}
	}

	switch opt.Kind {
	case Inner:
		emitLeftSide(false)
	case Left:
		emitLeftSide(true)
	case Right:
		for _, rr := range right.Rows {
			k := table.Key(rr[rightKey])
			matches := leftLookup.rows[k]
			if k == "" || len(matches) == 0 {
				emit(nil, rr)
				continue
			}
			for _, lr := range matches {
				emit(lr, rr)
				stats.Matched++
			}
		}
	case Outer:
		emitLeftSide(true)
		for _, rr := range right.Rows {
			k := table.Key(rr[rightKey])
			if k == "" || len(leftLookup.rows[k]) == 0 {
				emit(nil, rr)
			}
		}
	}

	stats.Total = len(out.Rows)
	if stats.Total == 0 {
		return nil, Stats{}, apperrors.EmptyResultf(
			"no records in the result of an %s join; the output file would be empty", opt.Kind)
	}
	out.Name = fmt.Sprintf("%s+%s", left.Name, right.Name)
	return out, stats, nil
}
