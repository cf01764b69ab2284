// Package engine orchestrates the toolkit operations: it parses uploaded
// files into tables (in parallel, dispatching on file extension), runs the
// requested transformation, and serializes the result for download. Every
// operation is instrumented through the metrics package.
package engine

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"csvtoolkit/internal/colstats"
	"csvtoolkit/internal/combine"
	"csvtoolkit/internal/dedup"
	"csvtoolkit/internal/join"
	"csvtoolkit/internal/metrics"
	pcsv "csvtoolkit/internal/parser/csv"
	"csvtoolkit/internal/parser/jsonrows"
	"csvtoolkit/internal/parser/xlsx"
	"csvtoolkit/internal/reconcile"
	"csvtoolkit/internal/split"
	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Upload is one file received from the client.
type Upload struct {
	Name string
	Data []byte
}

// Output is a finished artifact ready to stream back.
type Output struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Engine runs the toolkit operations. It holds no per-request state.
type Engine struct {
	csv *pcsv.Parser
}

// New constructs an Engine with the default CSV dialect.
func New() *Engine {
	return &Engine{csv: pcsv.NewParser(pcsv.Options{TrimSpace: true})}
}

// ParseAll turns uploads into tables, one goroutine per file. The parser is
// chosen by extension: .json, .xlsx/.xls, anything else is read as CSV.
func (e *Engine) ParseAll(ctx context.Context, uploads []Upload) ([]*table.Table, error) {
	if len(uploads) == 0 {
		return nil, apperrors.Inputf("no files uploaded")
	}
	tables := make([]*table.Table, len(uploads))
	g, _ := errgroup.WithContext(ctx)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			t, err := e.parseOne(up)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (e *Engine) parseOne(up Upload) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(up.Name)) {
	case ".json":
		return jsonrows.Parse(bytes.NewReader(up.Data), up.Name)
	case ".xlsx", ".xls":
		return xlsx.Parse(bytes.NewReader(up.Data), up.Name)
	default:
		return e.csv.Parse(bytes.NewReader(up.Data), up.Name)
	}
}

// OutputName resolves the download filename: the caller's hint when given
// (".csv" appended unless it already ends that way), otherwise fallback.
func OutputName(hint, fallback string) string {
	name := strings.TrimSpace(hint)
	if name == "" {
		return fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

func (e *Engine) csvOutput(t *table.Table, hint, fallback string) (*Output, error) {
	data, err := pcsv.Serialize(t, nil)
	if err != nil {
		return nil, err
	}
	return &Output{
		Filename:    OutputName(hint, fallback),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

// CombineRequest configures the stack-and-reconcile operation.
type CombineRequest struct {
	Mappings    reconcile.MappingSet
	DedupColumn string
	OutputName  string
}

// Combine stacks the uploads under their reconciled target columns.
func (e *Engine) Combine(ctx context.Context, uploads []Upload, req CombineRequest) (out *Output, stats combine.Stats, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("combine", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, uploads)
	if err != nil {
		return nil, combine.Stats{}, err
	}
	res, stats, err := combine.Combine(tables, req.Mappings, combine.Options{DedupColumn: req.DedupColumn})
	if err != nil {
		return nil, combine.Stats{}, err
	}
	metrics.RecordRows("combine", "output", int64(len(res.Rows)))
	metrics.RecordRows("combine", "duplicates", int64(stats.DuplicateCount))
	out, err = e.csvOutput(res, req.OutputName, "combined.csv")
	return out, stats, err
}

// JoinRequest configures the two-file relational join.
type JoinRequest struct {
	LeftKey       string
	RightKey      string
	Kind          join.Type
	PrefixColumns bool
	OutputName    string
}

// Join runs a relational join of exactly two uploads.
func (e *Engine) Join(ctx context.Context, left, right Upload, req JoinRequest) (out *Output, stats join.Stats, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("join", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, []Upload{left, right})
	if err != nil {
		return nil, join.Stats{}, err
	}
	res, stats, err := join.Join(tables[0], tables[1], join.Options{
		LeftKey:       req.LeftKey,
		RightKey:      req.RightKey,
		Kind:          req.Kind,
		PrefixColumns: req.PrefixColumns,
	})
	if err != nil {
		return nil, join.Stats{}, err
	}
	metrics.RecordRows("join", "output", int64(stats.Total))
	metrics.RecordRows("join", "unmatched", int64(stats.UnmatchedLeft+stats.UnmatchedRight))
	out, err = e.csvOutput(res, req.OutputName, "joined.csv")
	return out, stats, err
}

// MergeRequest configures the side-by-side VLOOKUP-style merge.
type MergeRequest struct {
	Mappings   reconcile.MappingSet
	KeyColumn  string
	Kind       join.MergeType
	OutputName string
}

// Merge joins N uploads side by side on a shared key column.
func (e *Engine) Merge(ctx context.Context, uploads []Upload, req MergeRequest) (out *Output, trace join.MergeTrace, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("merge", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, uploads)
	if err != nil {
		return nil, nil, err
	}
	res, trace, err := join.Merge(tables, req.Mappings, join.MergeOptions{
		KeyColumn: req.KeyColumn,
		Kind:      req.Kind,
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordRows("merge", "output", int64(len(res.Rows)))
	out, err = e.csvOutput(res, req.OutputName, "merged.csv")
	return out, trace, err
}

// VLookupRequest configures the classic two-file VLOOKUP.
type VLookupRequest struct {
	LookupColumn string
	Returns      []join.ReturnColumn
	Approximate  bool
	ErrorValue   string
	OutputName   string
}

// VLookup enriches the main upload with columns from the lookup upload.
func (e *Engine) VLookup(ctx context.Context, main, lookup Upload, req VLookupRequest) (out *Output, stats join.VLookupStats, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("vlookup", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, []Upload{main, lookup})
	if err != nil {
		return nil, join.VLookupStats{}, err
	}
	res, stats, err := join.VLookup(tables[0], tables[1], join.VLookupOptions{
		LookupColumn: req.LookupColumn,
		Returns:      req.Returns,
		Approximate:  req.Approximate,
		ErrorValue:   req.ErrorValue,
	})
	if err != nil {
		return nil, join.VLookupStats{}, err
	}
	metrics.RecordRows("vlookup", "output", int64(stats.Total))
	metrics.RecordRows("vlookup", "missed", int64(stats.Missed))
	out, err = e.csvOutput(res, req.OutputName, "vlookup_result.csv")
	return out, stats, err
}

// DedupRequest configures deduplication over one or more uploads.
type DedupRequest struct {
	// Columns maps filename to its key column. Single-file requests may
	// instead set KeyColumn.
	Columns    map[string]string
	KeyColumn  string
	KeepFirst  bool
	Mode       dedup.ExportMode
	OutputName string
}

// Dedup removes duplicate rows by key column, within one file or across
// several.
func (e *Engine) Dedup(ctx context.Context, uploads []Upload, req DedupRequest) (out *Output, stats dedup.Stats, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("dedup", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, uploads)
	if err != nil {
		return nil, dedup.Stats{}, err
	}

	if req.Mode == dedup.File2Only && len(tables) != 2 {
		return nil, dedup.Stats{}, apperrors.Inputf("file2-only export requires exactly 2 files, got %d", len(tables))
	}

	var res *table.Table
	if len(tables) == 1 {
		col := req.KeyColumn
		if col == "" && req.Columns != nil {
			col = req.Columns[tables[0].Name]
		}
		res, _, stats, err = dedup.Single(tables[0], col, req.KeepFirst)
	} else {
		mode := req.Mode
		if mode == "" {
			mode = dedup.MergedUnique
		}
		res, _, stats, err = dedup.Multi(tables, req.Columns, req.KeepFirst, mode)
	}
	if err != nil {
		return nil, dedup.Stats{}, err
	}
	metrics.RecordRows("dedup", "input", int64(stats.OriginalCount))
	metrics.RecordRows("dedup", "duplicates", int64(stats.DuplicateCount))
	out, err = e.csvOutput(res, req.OutputName, "deduplicated.csv")
	return out, stats, err
}

// BlankFilterRequest configures the blank-column filter.
type BlankFilterRequest struct {
	// Threshold is the blank percentage (0-100) at which a column is
	// removed.
	Threshold float64
	// Overrides force a column out (true) or keep it (false).
	Overrides  map[string]bool
	OutputName string
}

// BlankFilter drops mostly-empty columns from a single upload.
func (e *Engine) BlankFilter(ctx context.Context, up Upload, req BlankFilterRequest) (out *Output, res colstats.FilterResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("blankfilter", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, []Upload{up})
	if err != nil {
		return nil, colstats.FilterResult{}, err
	}
	filtered, res, err := colstats.Filter(tables[0], req.Threshold, req.Overrides)
	if err != nil {
		return nil, colstats.FilterResult{}, err
	}
	metrics.RecordRows("blankfilter", "output", int64(len(filtered.Rows)))
	out, err = e.csvOutput(filtered, req.OutputName, "filtered.csv")
	return out, res, err
}

// Split cuts one upload into parts chunks bundled as a zip.
func (e *Engine) Split(ctx context.Context, up Upload, parts int, outputName string) (out *Output, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("split", err, time.Since(start)) }()

	tables, err := e.ParseAll(ctx, []Upload{up})
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(up.Name, filepath.Ext(up.Name))
	res, err := split.Split(tables[0], parts, base)
	if err != nil {
		return nil, err
	}
	metrics.RecordRows("split", "parts", int64(len(res.Parts)))

	name := strings.TrimSpace(outputName)
	if name == "" {
		name = base + "_split.zip"
	} else if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return &Output{Filename: name, ContentType: "application/zip", Data: res.Zip}, nil
}

// JSONToCSV converts a JSON upload to CSV regardless of its extension.
func (e *Engine) JSONToCSV(ctx context.Context, up Upload, outputName string) (out *Output, err error) {
	start := time.Now()
	defer func() { metrics.RecordOp("jsontocsv", err, time.Since(start)) }()

	t, err := jsonrows.Parse(bytes.NewReader(up.Data), up.Name)
	if err != nil {
		return nil, err
	}
	metrics.RecordRows("jsontocsv", "output", int64(len(t.Rows)))
	base := strings.TrimSuffix(up.Name, filepath.Ext(up.Name))
	return e.csvOutput(t, outputName, base+".csv")
}
