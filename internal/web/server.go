// Package web serves the browser form and the JSON API for single and batch
// QA evaluation.
package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"

	"github.com/mwiater/qaeval/internal/appconfig"
	"github.com/mwiater/qaeval/internal/csvio"
	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/qa"
)

const (
	structuredKind = "structured"
	rawKind        = "raw"

	maxJSONBody = 1 << 20
)

// Server holds the grading service and the artifacts of recent batches.
type Server struct {
	svc       *qa.Service
	store     *artifactStore
	addr      string
	maxUpload int64
}

// NewServer builds a Server for the configured listen address.
func NewServer(svc *qa.Service, cfg *appconfig.Config) *Server {
	return &Server{
		svc:       svc,
		store:     newArtifactStore(maxArtifacts),
		addr:      cfg.ListenAddr(),
		maxUpload: cfg.MaxUploadBytes(),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	r.Get("/", s.index)
	r.Post("/evaluate", s.evaluateForm)
	r.Post("/batch", s.batchForm)
	r.Get("/downloads/{id}/structured.csv", s.download(structuredKind))
	r.Get("/downloads/{id}/raw.csv", s.download(rawKind))

	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", s.evaluateAPI)
		r.Post("/batch", s.batchAPI)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("web: listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.LogEvent("web: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) indexPage() indexPage {
	return indexPage{Model: s.svc.Model(), Limit: s.svc.Limit(), Columns: s.svc.Columns()}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", s.indexPage())
}

func (s *Server) evaluateForm(w http.ResponseWriter, r *http.Request) {
	question := r.FormValue("question")
	answer := r.FormValue("answer")

	report, err := s.svc.EvaluateSingle(r.Context(), question, answer)
	if err != nil {
		page := s.indexPage()
		page.Question, page.Answer, page.Error = question, answer, err.Error()
		s.render(w, statusFor(err), "index.html", page)
		return
	}
	s.render(w, http.StatusOK, "single.html", newSinglePage(report))
}

func (s *Server) batchForm(w http.ResponseWriter, r *http.Request) {
	report, err := s.runUpload(w, r)
	if err != nil {
		page := s.indexPage()
		page.Error = err.Error()
		s.render(w, statusFor(err), "index.html", page)
		return
	}
	s.render(w, http.StatusOK, "batch.html", newBatchPage(report))
}

// runUpload reads the multipart "file" field, runs the batch and stores its
// exports for download.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request) (*qa.BatchReport, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, uploadTooLargeError{limit: tooLarge.Limit}
		}
		return nil, missingFileError{err: err}
	}
	defer file.Close()

	table, err := s.svc.ReadTable(file)
	if err != nil {
		return nil, err
	}
	report, err := s.svc.RunBatch(r.Context(), table, nil)
	if err != nil {
		return nil, err
	}
	if err := s.storeArtifacts(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Server) storeArtifacts(report *qa.BatchReport) error {
	structured, err := report.StructuredCSV()
	if err != nil {
		return fmt.Errorf("render structured export: %w", err)
	}
	raw, err := report.RawCSV()
	if err != nil {
		return fmt.Errorf("render raw export: %w", err)
	}
	s.store.put(report.ID, artifact{Structured: structured, Raw: raw, Created: time.Now()})
	return nil
}

func (s *Server) download(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := s.store.get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "download not found", http.StatusNotFound)
			return
		}
		data, name := a.Structured, csvio.StructuredFileName
		if kind == rawKind {
			data, name = a.Raw, csvio.RawFileName
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		http.ServeContent(w, r, name, a.Created, bytes.NewReader(data))
	}
}

type errResp struct {
	Error string `json:"error"`
}

type evaluateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type rowJSON struct {
	Criterion string `json:"criterion"`
	Score     string `json:"score"`
	Summary   string `json:"summary"`
}

type evaluateResponse struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Failed   bool      `json:"failed"`
	Error    string    `json:"error,omitempty"`
	Raw      string    `json:"raw,omitempty"`
	Rows     []rowJSON `json:"rows"`
	Total    *int      `json:"total,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

type recordJSON struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Failed   bool   `json:"failed"`
	Error    string `json:"error,omitempty"`
	Raw      string `json:"raw,omitempty"`
	Total    *int   `json:"total,omitempty"`
}

type batchResponse struct {
	ID        string            `json:"id"`
	Model     string            `json:"model"`
	Evaluated int               `json:"evaluated"`
	Dropped   int               `json:"dropped"`
	Failed    int               `json:"failed"`
	Mean      *float64          `json:"mean,omitempty"`
	Notice    string            `json:"notice,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
	Records   []recordJSON      `json:"records"`
	Downloads map[string]string `json:"downloads"`
}

func (s *Server) evaluateAPI(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	if err := validateEvaluateRequest(body); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	var req evaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}

	report, err := s.svc.EvaluateSingle(r.Context(), req.Question, req.Answer)
	if err != nil {
		writeJSON(w, statusFor(err), errResp{err.Error()})
		return
	}

	resp := evaluateResponse{
		Question: req.Question,
		Answer:   req.Answer,
		Failed:   report.Result.Failed(),
		Error:    report.Result.Err(),
		Raw:      report.Result.Raw(),
		Rows:     []rowJSON{},
		Warnings: report.Parsed.Warnings,
	}
	for _, row := range report.Parsed.Rows {
		resp.Rows = append(resp.Rows, rowJSON{Criterion: row.Criterion, Score: row.Score, Summary: row.Summary})
	}
	if total, ok := report.Parsed.Total(); ok {
		resp.Total = &total
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) batchAPI(w http.ResponseWriter, r *http.Request) {
	report, err := s.runUpload(w, r)
	if err != nil {
		writeJSON(w, statusFor(err), errResp{err.Error()})
		return
	}

	resp := batchResponse{
		ID:        report.ID,
		Model:     report.Model,
		Evaluated: len(report.Results),
		Dropped:   report.Dropped,
		Failed:    report.Failed,
		Notice:    report.TruncationNotice(),
		Warnings:  report.Warnings(),
		Records:   make([]recordJSON, 0, len(report.Results)),
		Downloads: map[string]string{
			structuredKind: downloadURL(report.ID, structuredKind),
			rawKind:        downloadURL(report.ID, rawKind),
		},
	}
	if report.HasMean {
		mean := report.Mean
		resp.Mean = &mean
	}
	for i, res := range report.Results {
		rec := recordJSON{
			Index:    report.Records[i].Index,
			Question: report.Records[i].Question,
			Failed:   res.Failed(),
			Error:    res.Err(),
			Raw:      res.Raw(),
		}
		if i < len(report.Parsed.Records) {
			if total, ok := report.Parsed.Records[i].Total(); ok {
				rec.Total = &total
			}
		}
		resp.Records = append(resp.Records, rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadTooLargeError struct {
	limit int64
}

func (e uploadTooLargeError) Error() string {
	return fmt.Sprintf("업로드 파일이 너무 큽니다 (최대 %dMB)", e.limit>>20)
}

type missingFileError struct {
	err error
}

func (e missingFileError) Error() string {
	return "CSV 파일을 업로드해주세요: " + e.err.Error()
}

func (e missingFileError) Unwrap() error { return e.err }

// statusFor maps request errors to HTTP status codes. Evaluation failures are
// not errors; they are reported inside a 200 response.
func statusFor(err error) int {
	var (
		tooLarge uploadTooLargeError
		missing  missingFileError
		parseErr *csv.ParseError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &missing), errors.As(err, &parseErr), qa.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data any) {
	var buf bytes.Buffer
	if err := renderPage(&buf, name, data); err != nil {
		logging.LogEvent("web: render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
