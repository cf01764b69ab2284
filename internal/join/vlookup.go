package join

import (
	"sort"
	"strings"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// ReturnColumn names a column to pull from the lookup table and the name it
// gets in the output.
type ReturnColumn struct {
	Source string
	Target string
}

// VLookupOptions configures a classic VLOOKUP of a main table against a
// lookup table whose first column is the lookup key.
type VLookupOptions struct {
	// LookupColumn is the main-table column whose values are searched for.
	LookupColumn string

	// Returns lists the lookup-table columns appended to each main row.
	Returns []ReturnColumn

	// Approximate switches from exact matching to the spreadsheet-style
	// floor match: the largest lookup key not greater than the search key,
	// compared case-insensitively over sorted keys.
	Approximate bool

	// ErrorValue fills return cells when no match is found.
	ErrorValue string
}

// VLookupStats counts lookups for the preview step.
type VLookupStats struct {
	Total   int
	Matched int
	Missed  int
}

// VLookup appends the configured return columns to every main row, resolved
// against the lookup table. Exact matches compare trimmed keys
// case-sensitively. Rows with an empty lookup value always miss.
func VLookup(main, lkp *table.Table, opt VLookupOptions) (*table.Table, VLookupStats, error) {
	if opt.LookupColumn == "" || len(opt.Returns) == 0 {
		return nil, VLookupStats{}, apperrors.Inputf("lookup column and return columns are required")
	}
	lookupCol, ok := main.FindHeader(opt.LookupColumn)
	if !ok {
		return nil, VLookupStats{}, apperrors.Mappingf("lookup column %q not found in %s", opt.LookupColumn, main.Name)
	}
	if len(lkp.Headers) == 0 {
		return nil, VLookupStats{}, apperrors.Mappingf("lookup table %s has no columns", lkp.Name)
	}
	for _, rc := range opt.Returns {
		if !lkp.HasHeader(rc.Source) {
			return nil, VLookupStats{}, apperrors.Mappingf("return column %q not found in %s", rc.Source, lkp.Name)
		}
	}

	// The lookup table's first column is its key, per spreadsheet
	// convention.
	keyCol := lkp.Headers[0]
	index := make(map[string]table.Row, len(lkp.Rows))
	for _, r := range lkp.Rows {
		k := table.Key(r[keyCol])
		if k == "" {
			continue
		}
		if opt.Approximate {
			k = strings.ToLower(k)
		}
		index[k] = r
	}
	var sorted []string
	if opt.Approximate {
		sorted = make([]string, 0, len(index))
		for k := range index {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
	}

	headers := append([]string(nil), main.Headers...)
	for _, rc := range opt.Returns {
		headers = append(headers, rc.Target)
	}
	out := table.New(main.Name, headers)

	var stats VLookupStats
	for _, mr := range main.Rows {
		row := make(table.Row, len(headers))
		for _, h := range main.Headers {
			row[h] = mr[h]
		}
		stats.Total++

		var hit table.Row
		if search := table.Key(mr[lookupCol]); search != "" {
			if opt.Approximate {
				hit = floorMatch(index, sorted, strings.ToLower(search))
			} else {
				hit = index[search]
			}
		}
		if hit != nil {
			stats.Matched++
			for _, rc := range opt.Returns {
				row[rc.Target] = hit[rc.Source]
			}
		} else {
			stats.Missed++
			for _, rc := range opt.Returns {
				row[rc.Target] = opt.ErrorValue
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, stats, nil
}

// floorMatch returns the row for the largest key not greater than search, or
// nil when every key is greater.
func floorMatch(index map[string]table.Row, sorted []string, search string) table.Row {
	i := sort.SearchStrings(sorted, search)
	if i < len(sorted) && sorted[i] == search {
		return index[sorted[i]]
	}
	if i == 0 {
		return nil
	}
	return index[sorted[i-1]]
}
