// Package colstats computes per-column emptiness ratios and drops columns
// that are blank beyond a threshold, subject to manual keep/remove
// overrides.
package colstats

import (
	"strings"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// ColumnStats counts the cells of one column. A cell is empty iff its value
// trims to "".
type ColumnStats struct {
	TotalCells      int
	EmptyCells      int
	BlankPercentage float64
}

// Compute tallies emptiness for every column of t in one pass.
func Compute(t *table.Table) map[string]ColumnStats {
	stats := make(map[string]ColumnStats, len(t.Headers))
	for _, h := range t.Headers {
		stats[h] = ColumnStats{TotalCells: len(t.Rows)}
	}
	for _, r := range t.Rows {
		for _, h := range t.Headers {
			if strings.TrimSpace(r[h]) == "" {
				s := stats[h]
				s.EmptyCells++
				stats[h] = s
			}
		}
	}
	for h, s := range stats {
		if s.TotalCells > 0 {
			s.BlankPercentage = float64(s.EmptyCells) / float64(s.TotalCells) * 100
		}
		stats[h] = s
	}
	return stats
}

// FilterResult reports what the filter decided, for the preview step.
type FilterResult struct {
	ColumnsToRemove  []string
	ColumnsToKeep    []string
	BlankPercentages map[string]float64
}

// Filter removes columns whose blank percentage meets threshold. A manual
// override of true removes the column and false keeps it, both regardless
// of the threshold. Removing every column is an error; the caller should
// lower the threshold or clear overrides.
func Filter(t *table.Table, threshold float64, overrides map[string]bool) (*table.Table, FilterResult, error) {
	if len(t.Rows) == 0 {
		return nil, FilterResult{}, apperrors.Inputf("%s: file has no data rows", t.Name)
	}

	stats := Compute(t)
	res := FilterResult{BlankPercentages: make(map[string]float64, len(t.Headers))}
	for _, h := range t.Headers {
		res.BlankPercentages[h] = stats[h].BlankPercentage
	}

	for _, h := range t.Headers {
		remove := stats[h].BlankPercentage >= threshold
		if manual, ok := overrides[h]; ok {
			remove = manual
		}
		if remove {
			res.ColumnsToRemove = append(res.ColumnsToRemove, h)
		} else {
			res.ColumnsToKeep = append(res.ColumnsToKeep, h)
		}
	}
	if len(res.ColumnsToKeep) == 0 {
		return nil, FilterResult{}, apperrors.Inputf(
			"all columns would be removed with the current threshold; lower the threshold or keep a column manually")
	}

	out := table.New(t.Name, res.ColumnsToKeep)
	for _, r := range t.Rows {
		row := make(table.Row, len(res.ColumnsToKeep))
		for _, h := range res.ColumnsToKeep {
			row[h] = r[h]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, res, nil
}
