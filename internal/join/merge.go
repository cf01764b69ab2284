package join

import (
	"path/filepath"
	"sort"
	"strings"

	"csvtoolkit/internal/reconcile"
	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// MergeType selects which candidate keys survive the N-file merge.
type MergeType string

const (
	// MergeLeft keeps keys present in the first file only.
	MergeLeft MergeType = "left"
	// MergeInner keeps keys present in every file.
	MergeInner MergeType = "inner"
	// MergeFull keeps the union of keys across all files.
	MergeFull MergeType = "full"
)

// MergeOptions configures the VLOOKUP-style merge.
type MergeOptions struct {
	// KeyColumn is the shared target column rows are matched on.
	KeyColumn string

	// Kind selects the candidate key set. Defaults to MergeLeft.
	Kind MergeType
}

// MergeTrace records, per output column, which "file: originalColumn"
// sources feed it, so the preview can explain the layout.
type MergeTrace map[string][]string

// Merge joins N files side by side on a shared key. Mapped target columns
// resolve by first-non-empty value in upload order; columns a file left
// unmapped come along as separate file-suffixed columns fed by that file
// alone. Keys fold case; within one file the last row per key wins. Output
// rows are ordered by ascending key.
func Merge(files []*table.Table, mappings reconcile.MappingSet, opt MergeOptions) (*table.Table, MergeTrace, error) {
	if len(files) < 2 {
		return nil, nil, apperrors.Inputf("at least 2 files are required, got %d", len(files))
	}
	if opt.KeyColumn == "" {
		return nil, nil, apperrors.Inputf("key column is required for a side-by-side merge")
	}
	kind := opt.Kind
	if kind == "" {
		kind = MergeLeft
	}

	// Target column set from the mappings.
	targetSet := make(map[string]bool)
	for _, fm := range mappings {
		for _, tgt := range fm {
			if tgt != "" {
				targetSet[tgt] = true
			}
		}
	}
	if len(targetSet) == 0 {
		return nil, nil, apperrors.Inputf("no column mappings provided")
	}
	targets := make([]string, 0, len(targetSet))
	for tgt := range targetSet {
		targets = append(targets, tgt)
	}
	sort.Strings(targets)

	// Per file: the original column feeding each target, the original key
	// column, and the single-row lookup (last write per key wins).
	type fileState struct {
		t        *table.Table
		byTarget map[string]string // target -> original column
		lookup   map[string]table.Row
		unmapped []string
	}
	states := make([]*fileState, 0, len(files))
	keySupplied := false
	for _, f := range files {
		fm := mappings[f.Name]
		st := &fileState{t: f, byTarget: make(map[string]string)}
		// Walk headers in declared order; if an edited mapping sends
		// two columns to one target, the last column wins
		// deterministically.
		for _, h := range f.Headers {
			if tgt := fm[h]; tgt != "" {
				st.byTarget[tgt] = h
			}
		}
		for _, h := range f.Headers {
			if tgt, ok := fm[h]; !ok || tgt == "" {
				st.unmapped = append(st.unmapped, h)
			}
		}
		if orig, ok := st.byTarget[opt.KeyColumn]; ok {
			keySupplied = true
			st.lookup = make(map[string]table.Row, len(f.Rows))
			for _, r := range f.Rows {
				k := table.FoldedKey(r[orig])
				if k == "" {
					continue
				}
				st.lookup[k] = r
			}
		}
		states = append(states, st)
	}
	if !keySupplied {
		return nil, nil, apperrors.Inputf("no file supplies the key column %q", opt.KeyColumn)
	}

	// Candidate key set by merge type.
	keySet := make(map[string]bool)
	switch kind {
	case MergeLeft:
		for k := range states[0].lookup {
			keySet[k] = true
		}
	case MergeInner:
		for k := range states[0].lookup {
			inAll := true
			for _, st := range states[1:] {
				if st.lookup == nil || st.lookup[k] == nil {
					inAll = false
					break
				}
			}
			if inAll {
				keySet[k] = true
			}
		}
	case MergeFull:
		for _, st := range states {
			for k := range st.lookup {
				keySet[k] = true
			}
		}
	default:
		return nil, nil, apperrors.Inputf("unsupported merge type %q", kind)
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Output layout: mapped targets first, then per-file suffixed unmapped
	// columns. The trace records the feeding sources per output column.
	headers := append([]string(nil), targets...)
	trace := make(MergeTrace, len(targets))
	for _, tgt := range targets {
		for _, st := range states {
			if orig, ok := st.byTarget[tgt]; ok {
				trace[tgt] = append(trace[tgt], st.t.Name+": "+orig)
			}
		}
	}
	type unmappedCol struct {
		name string // suffixed output name
		st   *fileState
		src  string
	}
	var extras []unmappedCol
	for _, st := range states {
		prefix := filePrefix(st.t.Name)
		for _, src := range st.unmapped {
			name := src + "_" + prefix
			extras = append(extras, unmappedCol{name: name, st: st, src: src})
			headers = append(headers, name)
			trace[name] = append(trace[name], st.t.Name+": "+src)
		}
	}

	out := table.New("merged", headers)
	for _, k := range keys {
		row := make(table.Row, len(headers))
		for _, tgt := range targets {
			val := ""
			for _, st := range states {
				orig, ok := st.byTarget[tgt]
				if !ok || st.lookup == nil {
					continue
				}
				if r, hit := st.lookup[k]; hit {
					if v := r[orig]; v != "" {
						val = v
						break
					}
				}
			}
			row[tgt] = val
		}
		for _, ec := range extras {
			val := ""
			if ec.st.lookup != nil {
				if r, hit := ec.st.lookup[k]; hit {
					val = r[ec.src]
				}
			}
			row[ec.name] = val
		}
		out.Rows = append(out.Rows, row)
	}

	if len(out.Rows) == 0 {
		return nil, nil, apperrors.EmptyResultf("merge produced no rows for join type %q", kind)
	}
	return out, trace, nil
}

// filePrefix turns a filename into the suffix used for that file's unmapped
// columns: extension dropped, anything but letters and digits replaced
// with '_'.
func filePrefix(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	var sb strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
