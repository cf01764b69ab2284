package engine

import (
	"context"
	"sort"
	"time"

	"csvtoolkit/internal/colstats"
	"csvtoolkit/internal/metrics"
	"csvtoolkit/internal/reconcile"
	"csvtoolkit/pkg/table"
)

// FileInfo summarizes one parsed upload for the configure step.
type FileInfo struct {
	Filename string      `json:"filename"`
	Columns  []string    `json:"columns"`
	RowCount int         `json:"rowCount"`
	Preview  []table.Row `json:"preview"`
}

// Analysis is the response of the analyze step. Which extras are populated
// depends on the operation being configured.
type Analysis struct {
	Files []FileInfo `json:"files"`

	// Groups are the suggested column groupings for combine and merge.
	Groups []reconcile.ColumnGroup `json:"groups,omitempty"`

	// Mappings are the per-file mappings derived from Groups.
	Mappings reconcile.MappingSet `json:"mappings,omitempty"`

	// Targets is the sorted universe of selectable target columns.
	Targets []string `json:"targets,omitempty"`

	// Statuses classifies each mapped column per file (exact, fuzzy,
	// manual), so the configure step can tag its suggestions.
	Statuses map[string]map[string]reconcile.Status `json:"statuses,omitempty"`

	// CommonColumns are join key candidates present in every file,
	// compared case-insensitively.
	CommonColumns []string `json:"commonColumns,omitempty"`

	// ColumnStats carries per-column blank ratios for the filter wizard.
	ColumnStats map[string]colstats.ColumnStats `json:"columnStats,omitempty"`
}

// previewRows caps the per-file preview returned by analyze.
const previewRows = 5

// Analyze parses the uploads and reports their shape plus suggestions for
// the named operation ("combine", "merge", "join", "blankfilter", or ""
// for the bare file summary).
func (e *Engine) Analyze(ctx context.Context, uploads []Upload, op string) (a *Analysis, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("analyze", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	a = &Analysis{}
	for _, t := range tables {
		a.Files = append(a.Files, FileInfo{
			Filename: t.Name,
			Columns:  append([]string(nil), t.Headers...),
			RowCount: len(t.Rows),
			Preview:  t.Preview(previewRows),
		})
	}

	switch op {
	case "combine", "merge":
		var cols []reconcile.FileColumns
		for _, t := range tables {
			cols = append(cols, reconcile.FileColumns{Filename: t.Name, Columns: t.Headers})
		}
		a.Groups = reconcile.ProposeMapping(cols)
		a.Mappings = reconcile.Mappings(a.Groups)
		a.Targets = reconcile.TargetUniverse(a.Groups)
		a.Statuses = mappingStatuses(a.Mappings)
	case "join":
		a.CommonColumns = commonColumns(tables)
	case "blankfilter":
		if len(tables) > 0 {
			a.ColumnStats = colstats.Compute(tables[0])
		}
	}
	return a, nil
}

// mappingStatuses classifies every original→target assignment of the
// mapping set.
func mappingStatuses(mappings reconcile.MappingSet) map[string]map[string]reconcile.Status {
	statuses := make(map[string]map[string]reconcile.Status, len(mappings))
	for file, fm := range mappings {
		per := make(map[string]reconcile.Status, len(fm))
		for orig, tgt := range fm {
			per[orig] = reconcile.StatusFor(orig, tgt)
		}
		statuses[file] = per
	}
	return statuses
}

// commonColumns returns the headers shared by every table, compared
// case-insensitively. The first table's casing wins; the result is sorted.
func commonColumns(tables []*table.Table) []string {
	if len(tables) == 0 {
		return nil
	}
	var common []string
	for _, h := range tables[0].Headers {
		inAll := true
		for _, t := range tables[1:] {
			if _, ok := t.FindHeader(h); !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, h)
		}
	}
	sort.Strings(common)
	return common
}
