package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mwiater/qaeval/internal/evaluation"
	"github.com/mwiater/qaeval/internal/scoring"
)

const (
	// StructuredFileName is the download name of the per-criterion export.
	StructuredFileName = "qa_evaluation_structured.csv"
	// RawFileName is the download name of the full-response export.
	RawFileName = "qa_evaluation_raw.csv"

	criterionHeader = "항목"
	scoreHeader     = "점수"
	summaryHeader   = "결과 요약"
)

// StructuredHeader returns the column order of the structured export.
func StructuredHeader(cols Columns) []string {
	return []string{cols.Question, cols.Answer, criterionHeader, scoreHeader, summaryHeader}
}

// WriteStructured writes one line per parsed row, UTF-8 with BOM.
func WriteStructured(w io.Writer, cols Columns, rows []scoring.Row) error {
	return writeBOMCSV(w, func(cw *csv.Writer) error {
		if err := cw.Write(StructuredHeader(cols)); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write([]string{r.Question, r.Answer, r.Criterion, r.Score, r.Summary}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteRaw writes the evaluated input rows with the result column set,
// UTF-8 with BOM. An existing result column is overwritten in place;
// otherwise one is appended. Only the first len(results) rows are written.
func WriteRaw(w io.Writer, cols Columns, table *Table, results []evaluation.Result) error {
	if len(results) > table.Len() {
		return fmt.Errorf("raw export: %d results for %d rows", len(results), table.Len())
	}
	resultIdx := slices.Index(table.Header, cols.Result)
	return writeBOMCSV(w, func(cw *csv.Writer) error {
		header := slices.Clone(table.Header)
		if resultIdx < 0 {
			header = append(header, cols.Result)
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		for i, res := range results {
			row := slices.Clone(table.Rows[i])
			if resultIdx < 0 {
				row = append(row, res.Display())
			} else {
				row[resultIdx] = res.Display()
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// StructuredBytes is WriteStructured into a buffer.
func StructuredBytes(cols Columns, rows []scoring.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteStructured(&buf, cols, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RawBytes is WriteRaw into a buffer.
func RawBytes(cols Columns, table *Table, results []evaluation.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRaw(&buf, cols, table, results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBOMCSV(w io.Writer, body func(*csv.Writer) error) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	if err := body(cw); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}
