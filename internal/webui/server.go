// Package webui exposes the HTTP boundary of the toolkit: an embedded HTML
// form page plus one multipart POST endpoint per operation.
//
// Routes:
//
//	GET  /                  → form page
//	POST /api/analyze       → file summaries + suggestions, JSON
//	POST /api/combine       → stacked CSV download
//	POST /api/join          → joined CSV download
//	POST /api/merge         → side-by-side merged CSV download
//	POST /api/vlookup       → enriched CSV download
//	POST /api/dedup         → deduplicated CSV download
//	POST /api/blank-columns → filtered CSV download
//	POST /api/split         → zip download
//	POST /api/json-to-csv   → converted CSV download
package webui

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"csvtoolkit/internal/dedup"
	"csvtoolkit/internal/engine"
	"csvtoolkit/internal/join"
	"csvtoolkit/internal/reconcile"
	"csvtoolkit/pkg/apperrors"
)

// Config controls server startup.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	BlankThreshold float64
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
	eng  *engine.Engine
}

// NewServer constructs a Server with routes and embedded template.
func NewServer(cfg Config, eng *engine.Engine) *Server {
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
		eng:  eng,
	}
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/combine", s.handleCombine)
	s.mux.HandleFunc("/api/join", s.handleJoin)
	s.mux.HandleFunc("/api/merge", s.handleMerge)
	s.mux.HandleFunc("/api/vlookup", s.handleVLookup)
	s.mux.HandleFunc("/api/dedup", s.handleDedup)
	s.mux.HandleFunc("/api/blank-columns", s.handleBlankColumns)
	s.mux.HandleFunc("/api/split", s.handleSplit)
	s.mux.HandleFunc("/api/json-to-csv", s.handleJSONToCSV)
}

// handleIndex renders the operation picker.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	_ = s.tmpl.Execute(w, nil)
}

// httpStatus maps error kinds onto HTTP status codes. Anything the caller
// can fix by changing the request is a 400.
func httpStatus(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindInput, apperrors.KindParse, apperrors.KindMapping, apperrors.KindEmptyResult:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	http.Error(w, err.Error(), status)
}

// uploads reads the multipart files of the named field, in form order.
func (s *Server) uploads(r *http.Request, field string) ([]engine.Upload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return nil, apperrors.Inputf("invalid multipart form: %v", err)
	}
	if r.MultipartForm == nil {
		return nil, apperrors.Inputf("no multipart form data")
	}
	var ups []engine.Upload
	for _, fh := range r.MultipartForm.File[field] {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		ups = append(ups, up)
	}
	return ups, nil
}

func readUpload(fh *multipart.FileHeader) (engine.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return engine.Upload{}, apperrors.Inputf("open upload %q: %v", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return engine.Upload{}, apperrors.Inputf("read upload %q: %v", fh.Filename, err)
	}
	return engine.Upload{Name: fh.Filename, Data: data}, nil
}

// formJSON decodes an optional JSON-encoded form field into dst.
func formJSON(r *http.Request, field string, dst any) error {
	raw := r.FormValue(field)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperrors.Inputf("field %q is not valid JSON: %v", field, err)
	}
	return nil
}

func (s *Server) writeOutput(w http.ResponseWriter, out *engine.Output) {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Write(out.Data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	a, err := s.eng.Analyze(r.Context(), ups, r.FormValue("operation"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	var mappings reconcile.MappingSet
	if err := formJSON(r, "mappings", &mappings); err != nil {
		s.fail(w, err)
		return
	}
	out, _, err := s.eng.Combine(r.Context(), ups, engine.CombineRequest{
		Mappings:    mappings,
		DedupColumn: r.FormValue("dedup_column"),
		OutputName:  r.FormValue("output_name"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(ups) != 2 {
		s.fail(w, apperrors.Inputf("join needs exactly 2 files, got %d", len(ups)))
		return
	}
	kind := join.Type(r.FormValue("join_type"))
	if kind == "" {
		kind = join.Inner
	}
	out, _, err := s.eng.Join(r.Context(), ups[0], ups[1], engine.JoinRequest{
		LeftKey:       r.FormValue("left_key"),
		RightKey:      r.FormValue("right_key"),
		Kind:          kind,
		PrefixColumns: r.FormValue("prefix_columns") == "true",
		OutputName:    r.FormValue("output_name"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	var mappings reconcile.MappingSet
	if err := formJSON(r, "mappings", &mappings); err != nil {
		s.fail(w, err)
		return
	}
	out, _, err := s.eng.Merge(r.Context(), ups, engine.MergeRequest{
		Mappings:   mappings,
		KeyColumn:  r.FormValue("key_column"),
		Kind:       join.MergeType(r.FormValue("merge_type")),
		OutputName: r.FormValue("output_name"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleVLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(ups) != 2 {
		s.fail(w, apperrors.Inputf("vlookup needs a main file and a lookup file, got %d", len(ups)))
		return
	}
	var returns []join.ReturnColumn
	if err := formJSON(r, "returns", &returns); err != nil {
		s.fail(w, err)
		return
	}
	out, _, err := s.eng.VLookup(r.Context(), ups[0], ups[1], engine.VLookupRequest{
		LookupColumn: r.FormValue("lookup_column"),
		Returns:      returns,
		Approximate:  r.FormValue("match_type") == "approximate",
		ErrorValue:   r.FormValue("error_value"),
		OutputName:   r.FormValue("output_name"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleDedup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	var columns map[string]string
	if err := formJSON(r, "columns", &columns); err != nil {
		s.fail(w, err)
		return
	}
	out, _, err := s.eng.Dedup(r.Context(), ups, engine.DedupRequest{
		Columns:    columns,
		KeyColumn:  r.FormValue("key_column"),
		KeepFirst:  r.FormValue("keep") != "last",
		Mode:       dedup.ExportMode(r.FormValue("mode")),
		OutputName: r.FormValue("output_name"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleBlankColumns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(ups) != 1 {
		s.fail(w, apperrors.Inputf("blank-column filter takes exactly 1 file, got %d", len(ups)))
		return
	}
	threshold := s.cfg.BlankThreshold
	if raw := strings.TrimSpace(r.FormValue("threshold")); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			s.fail(w, apperrors.Inputf("threshold %q is not a number", raw))
			return
		}
	}
	var overrides map[string]bool
	if err := formJSON(r, "overrides", &overrides); err != nil {
		s.fail(w, err)
		return
	}
	out, _, err := s.eng.BlankFilter(r.Context(), ups[0], engine.BlankFilterRequest{
		Threshold:  threshold,
		Overrides:  overrides,
		OutputName: r.FormValue("output_name"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(ups) != 1 {
		s.fail(w, apperrors.Inputf("split takes exactly 1 file, got %d", len(ups)))
		return
	}
	parts, err := strconv.Atoi(strings.TrimSpace(r.FormValue("parts")))
	if err != nil {
		s.fail(w, apperrors.Inputf("parts %q is not an integer", r.FormValue("parts")))
		return
	}
	out, err := s.eng.Split(r.Context(), ups[0], parts, r.FormValue("output_name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

func (s *Server) handleJSONToCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	ups, err := s.uploads(r, "files")
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(ups) != 1 {
		s.fail(w, apperrors.Inputf("json-to-csv takes exactly 1 file, got %d", len(ups)))
		return
	}
	out, err := s.eng.JSONToCSV(r.Context(), ups[0], r.FormValue("output_name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeOutput(w, out)
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string
