// Package combine stacks the rows of N files into one table whose columns
// are the reconciled target columns. Each file contributes rows remapped
// through its own column mapping; columns left unmapped are dropped.
package combine

import (
	"sort"

	"csvtoolkit/internal/dedup"
	"csvtoolkit/internal/reconcile"
	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Options configures a combine run.
type Options struct {
	// DedupColumn, when set, removes duplicate rows from the combined
	// output by this target column, keeping the first occurrence.
	DedupColumn string
}

// Stats reports the combine outcome.
type Stats struct {
	CombinedCount  int
	DuplicateCount int
}

// Combine concatenates the files under the sorted set of target columns
// drawn from the mappings. Files without a mapping entry are skipped. An
// empty combined result is an error; so is a missing mapping set.
func Combine(files []*table.Table, mappings reconcile.MappingSet, opt Options) (*table.Table, Stats, error) {
	if len(files) < 2 {
		return nil, Stats{}, apperrors.Inputf("at least 2 files are required, got %d", len(files))
	}
	if len(mappings) == 0 {
		return nil, Stats{}, apperrors.Inputf("column mappings are required")
	}

	targetSet := make(map[string]bool)
	for _, fm := range mappings {
		for _, tgt := range fm {
			if tgt != "" {
				targetSet[tgt] = true
			}
		}
	}
	if len(targetSet) == 0 {
		return nil, Stats{}, apperrors.Inputf("column mappings map nothing")
	}
	targets := make([]string, 0, len(targetSet))
	for tgt := range targetSet {
		targets = append(targets, tgt)
	}
	sort.Strings(targets)

	out := table.New("combined", targets)
	for _, f := range files {
		fm, ok := mappings[f.Name]
		if !ok {
			continue
		}
		for _, r := range f.Rows {
			row := make(table.Row, len(targets))
			for _, tgt := range targets {
				row[tgt] = ""
			}
			// Headers are walked in declared order so that when an
			// edited mapping sends two columns to one target, the
			// last column wins deterministically.
			for _, orig := range f.Headers {
				tgt := fm[orig]
				if tgt == "" {
					continue
				}
				row[tgt] = r[orig]
			}
			out.Rows = append(out.Rows, row)
		}
	}
	if len(out.Rows) == 0 {
		return nil, Stats{}, apperrors.EmptyResultf("no data to combine")
	}

	stats := Stats{CombinedCount: len(out.Rows)}
	if opt.DedupColumn != "" {
		deduped, _, ds, err := dedup.Single(out, opt.DedupColumn, true)
		if err != nil {
			return nil, Stats{}, err
		}
		out = deduped
		stats.DuplicateCount = ds.DuplicateCount
	}
	return out, stats, nil
}
