// Package csvio reads batch input CSV files and writes the structured and raw
// result exports.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mwiater/qaeval/internal/evaluation"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("csv file is empty")

// MissingColumnsError reports required columns absent from the header.
type MissingColumnsError struct {
	Missing []string
	Header  []string
}

func (e *MissingColumnsError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("'%s'", m)
	}
	return fmt.Sprintf("CSV에는 반드시 %s 컬럼이 있어야 합니다 (found: %s)",
		strings.Join(quoted, ", "), strings.Join(e.Header, ", "))
}

// Columns names the input and output columns.
type Columns struct {
	Question string
	Answer   string
	Result   string
}

// Table is a parsed input file. All columns are kept so the raw export can
// carry them through.
type Table struct {
	Header      []string
	Rows        [][]string
	questionIdx int
	answerIdx   int
}

// ReadTable parses CSV input, tolerating a UTF-8 byte-order mark, and checks
// that the question and answer columns exist.
func ReadTable(r io.Reader, cols Columns) (*Table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Header: header, questionIdx: -1, answerIdx: -1}
	for i, name := range header {
		switch name {
		case cols.Question:
			if t.questionIdx < 0 {
				t.questionIdx = i
			}
		case cols.Answer:
			if t.answerIdx < 0 {
				t.answerIdx = i
			}
		}
	}
	var missing []string
	if t.questionIdx < 0 {
		missing = append(missing, cols.Question)
	}
	if t.answerIdx < 0 {
		missing = append(missing, cols.Answer)
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Header: header}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, padRow(row, len(header)))
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Records returns one Record per data row in file order.
func (t *Table) Records() []evaluation.Record {
	out := make([]evaluation.Record, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = evaluation.Record{
			Index:    i,
			Question: row[t.questionIdx],
			Answer:   row[t.answerIdx],
		}
	}
	return out
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
