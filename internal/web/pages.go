package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/mwiater/qaeval/internal/csvio"
	"github.com/mwiater/qaeval/internal/qa"
	"github.com/mwiater/qaeval/internal/scoring"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indexPage struct {
	Model    string
	Limit    int
	Columns  csvio.Columns
	Question string
	Answer   string
	Error    string
}

type singlePage struct {
	Question string
	Answer   string
	Failed   bool
	Display  string
	Rows     []scoring.Row
	Total    int
	HasTotal bool
	Warnings []string
}

func newSinglePage(report *qa.SingleReport) singlePage {
	page := singlePage{
		Question: report.Record.Question,
		Answer:   report.Record.Answer,
		Failed:   report.Result.Failed(),
		Display:  report.Result.Display(),
		Warnings: report.Parsed.Warnings,
	}
	for _, row := range report.Parsed.Rows {
		if row.Criterion == scoring.TotalCriterion {
			continue
		}
		page.Rows = append(page.Rows, row)
	}
	page.Total, page.HasTotal = report.Parsed.Total()
	return page
}

type batchItem struct {
	Number   int
	Question string
	Failed   bool
	Display  string
	Total    string
}

type batchPage struct {
	ID            string
	Columns       csvio.Columns
	Evaluated     int
	Failed        int
	Notice        string
	Mean          string
	Items         []batchItem
	Warnings      []string
	StructuredURL string
	RawURL        string
}

func newBatchPage(report *qa.BatchReport) batchPage {
	page := batchPage{
		ID:            report.ID,
		Columns:       report.Columns,
		Evaluated:     len(report.Results),
		Failed:        report.Failed,
		Notice:        report.TruncationNotice(),
		Mean:          report.MeanSummary(),
		Warnings:      report.Warnings(),
		StructuredURL: downloadURL(report.ID, structuredKind),
		RawURL:        downloadURL(report.ID, rawKind),
	}
	for i, res := range report.Results {
		item := batchItem{
			Number:   report.Records[i].Index + 1,
			Question: report.Records[i].Question,
			Failed:   res.Failed(),
			Display:  res.Display(),
			Total:    "-",
		}
		if i < len(report.Parsed.Records) {
			if total, ok := report.Parsed.Records[i].Total(); ok {
				item.Total = strconv.Itoa(total) + scoring.ScoreUnit
			}
		}
		page.Items = append(page.Items, item)
	}
	return page
}

func downloadURL(id, kind string) string {
	return fmt.Sprintf("/downloads/%s/%s.csv", id, kind)
}

func renderPage(w io.Writer, name string, data any) error {
	return pages.ExecuteTemplate(w, name, data)
}
