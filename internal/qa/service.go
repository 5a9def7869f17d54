// Package qa wires prompt building, evaluation, parsing and export into the
// single-record and batch grading flows shared by the CLI and the web form.
package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/qaeval/internal/appconfig"
	"github.com/mwiater/qaeval/internal/csvio"
	"github.com/mwiater/qaeval/internal/evaluation"
	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/providers"
	"github.com/mwiater/qaeval/internal/rubric"
	"github.com/mwiater/qaeval/internal/scoring"
)

var (
	// ErrEmptyInput is returned when the question or the answer is blank.
	ErrEmptyInput = errors.New("고객 질문과 상담사 답변을 모두 입력해주세요")
	// ErrNoRecords is returned for a batch file without data rows.
	ErrNoRecords = errors.New("CSV 파일에 평가할 행이 없습니다")
)

// IsValidationError reports whether err is an input problem detected before
// any remote call.
func IsValidationError(err error) bool {
	var missing *csvio.MissingColumnsError
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrNoRecords) ||
		errors.Is(err, csvio.ErrEmptyFile) ||
		errors.As(err, &missing)
}

// Service runs grading flows against one evaluator.
type Service struct {
	evaluator evaluation.Evaluator
	runner    *evaluation.Runner
	columns   csvio.Columns
	model     string
}

// NewService builds a Service from a completer and the app configuration.
func NewService(completer providers.Completer, cfg *appconfig.Config) *Service {
	client := evaluation.NewClient(completer, cfg)
	return NewServiceWithEvaluator(client, cfg)
}

// NewServiceWithEvaluator is NewService with an explicit evaluator.
func NewServiceWithEvaluator(ev evaluation.Evaluator, cfg *appconfig.Config) *Service {
	q, a, r := cfg.Columns()
	return &Service{
		evaluator: ev,
		runner:    evaluation.NewRunner(ev, cfg.BatchLimitOrDefault()),
		columns:   csvio.Columns{Question: q, Answer: a, Result: r},
		model:     cfg.ModelName(),
	}
}

// Columns returns the configured CSV column names.
func (s *Service) Columns() csvio.Columns { return s.columns }

// Limit returns the batch cap.
func (s *Service) Limit() int { return s.runner.Limit }

// Model returns the configured model name.
func (s *Service) Model() string { return s.model }

// ReadTable parses an uploaded CSV with the configured columns.
func (s *Service) ReadTable(r io.Reader) (*csvio.Table, error) {
	return csvio.ReadTable(r, s.columns)
}

// SingleReport is the outcome of one interactive evaluation.
type SingleReport struct {
	Record   evaluation.Record
	Result   evaluation.Result
	Parsed   scoring.Parsed
	Duration time.Duration
}

// EvaluateSingle grades one question/answer pair with the single-mode prompt.
func (s *Service) EvaluateSingle(ctx context.Context, question, answer string) (*SingleReport, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyInput
	}
	rec := evaluation.Record{Index: 0, Question: question, Answer: answer}

	start := time.Now()
	res := s.evaluator.Evaluate(ctx, rubric.Build(question, answer, rubric.ModeSingle))
	report := &SingleReport{
		Record:   rec,
		Result:   res,
		Parsed:   scoring.Parse(rec, res),
		Duration: time.Since(start),
	}
	logging.LogEvent("single evaluation finished in %s (failed=%v)", report.Duration.Round(time.Millisecond), res.Failed())
	return report, nil
}

// BatchReport is the outcome of one batch run. Results has one entry per
// evaluated record, in input order.
type BatchReport struct {
	ID       string
	Model    string
	Columns  csvio.Columns
	Table    *csvio.Table
	Records  []evaluation.Record
	Results  []evaluation.Result
	Parsed   scoring.Report
	Mean     float64
	HasMean  bool
	Dropped  int
	Failed   int
	Started  time.Time
	Duration time.Duration
}

// Warnings returns the non-fatal parse warnings.
func (r *BatchReport) Warnings() []string { return r.Parsed.Warnings }

// Rows returns the structured rows across all records.
func (r *BatchReport) Rows() []scoring.Row { return r.Parsed.Rows }

// TruncationNotice describes dropped rows, or returns "" when none were dropped.
func (r *BatchReport) TruncationNotice() string {
	if r.Dropped == 0 {
		return ""
	}
	return fmt.Sprintf("다건 평가는 최대 %d건까지만 평가됩니다. 나머지 %d건은 평가되지 않았습니다.", len(r.Records), r.Dropped)
}

// MeanSummary formats the average total for display.
func (r *BatchReport) MeanSummary() string {
	if !r.HasMean {
		return "총점을 추출할 수 있는 평가 결과가 없습니다"
	}
	return fmt.Sprintf("평균 총점 %.1f점", r.Mean)
}

// StructuredCSV renders the per-criterion export.
func (r *BatchReport) StructuredCSV() ([]byte, error) {
	return csvio.StructuredBytes(r.Columns, r.Parsed.Rows)
}

// RawCSV renders the input rows with the full model response appended.
func (r *BatchReport) RawCSV() ([]byte, error) {
	return csvio.RawBytes(r.Columns, r.Table, r.Results)
}

// RunBatch evaluates the first Limit rows of table sequentially, parses the
// responses and averages the totals. onProgress may be nil.
func (s *Service) RunBatch(ctx context.Context, table *csvio.Table, onProgress func(evaluation.Progress)) (*BatchReport, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoRecords
	}

	all := table.Records()
	records, dropped := s.runner.Truncate(all)

	report := &BatchReport{
		ID:      uuid.NewString(),
		Model:   s.model,
		Columns: s.columns,
		Table:   table,
		Records: records,
		Dropped: dropped,
		Started: time.Now(),
	}
	logging.LogEvent("batch %s: %d records (%d dropped) model=%s", report.ID, len(records), dropped, s.model)

	report.Results = s.runner.Run(ctx, records, onProgress)
	report.Parsed = scoring.ParseBatch(records, report.Results)
	report.Mean, report.HasMean = scoring.Mean(report.Parsed.Totals)
	for _, res := range report.Results {
		if res.Failed() {
			report.Failed++
		}
	}
	for _, w := range report.Parsed.Warnings {
		logging.LogEvent("batch %s: parse warning: %s", report.ID, w)
	}
	report.Duration = time.Since(report.Started)

	if report.HasMean {
		logging.LogEvent("batch %s: done in %s, failed=%d, mean total=%.1f", report.ID, report.Duration.Round(time.Millisecond), report.Failed, report.Mean)
	} else {
		logging.LogEvent("batch %s: done in %s, failed=%d, no totals parsed", report.ID, report.Duration.Round(time.Millisecond), report.Failed)
	}
	return report, nil
}
