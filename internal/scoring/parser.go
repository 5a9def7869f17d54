// Package scoring extracts score tables from model output and aggregates totals.
package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mwiater/qaeval/internal/evaluation"
)

const (
	// TotalCriterion labels the synthetic row emitted for a total-score line.
	TotalCriterion = "total"
	// ScoreUnit is appended to parsed totals.
	ScoreUnit = "점"

	tableDelimiter  = "|"
	minDelimiters   = 4
	expectedColumns = 3
)

// totalMarker identifies a total-score line: 총점 anywhere, or "total" as a
// whole word in any case.
var totalMarker = regexp.MustCompile(`총점|(?i:\btotal\b)`)

// Row is one parsed rubric entry tied to the record it came from.
type Row struct {
	Question  string
	Answer    string
	Criterion string
	Score     string
	Summary   string
}

// Parsed is what one record's output yielded.
type Parsed struct {
	Rows     []Row
	Totals   []int
	Warnings []string
}

// Total returns the first total found in the record, if any.
func (p Parsed) Total() (int, bool) {
	if len(p.Totals) == 0 {
		return 0, false
	}
	return p.Totals[0], true
}

// Parse scans a result line by line. Every table line with exactly three
// cells becomes a Row, header and delimiter lines included, in line order.
// Lines carrying a total marker become a synthetic total Row and a Totals
// entry. Failures yield nothing.
func Parse(rec evaluation.Record, res evaluation.Result) Parsed {
	var out Parsed
	if res.Failed() {
		return out
	}

	for _, line := range strings.Split(res.Raw(), "\n") {
		trimmed := strings.TrimSpace(line)

		if isTableRow(trimmed) {
			cells := splitCells(trimmed)
			if len(cells) != expectedColumns {
				continue
			}
			out.Rows = append(out.Rows, Row{
				Question:  rec.Question,
				Answer:    rec.Answer,
				Criterion: cells[0],
				Score:     cells[1],
				Summary:   cells[2],
			})
			continue
		}

		if !totalMarker.MatchString(trimmed) {
			continue
		}
		total, err := extractTotal(trimmed)
		if err != nil {
			out.Warnings = append(out.Warnings, err.Error())
			continue
		}
		out.Totals = append(out.Totals, total)
		out.Rows = append(out.Rows, Row{
			Question:  rec.Question,
			Answer:    rec.Answer,
			Criterion: TotalCriterion,
			Score:     strconv.Itoa(total) + ScoreUnit,
		})
	}

	if len(out.Rows) == 0 && len(out.Warnings) == 0 {
		out.Warnings = append(out.Warnings, "no score table found in response")
	}
	return out
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, tableDelimiter) && strings.Count(line, tableDelimiter) >= minDelimiters
}

// splitCells drops the fragments outside the outer delimiters and trims each cell.
func splitCells(line string) []string {
	parts := strings.Split(line, tableDelimiter)
	if len(parts) < 2 {
		return nil
	}
	parts = parts[1 : len(parts)-1]
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// extractTotal concatenates every ASCII digit of the line in order.
func extractTotal(line string) (int, error) {
	var digits strings.Builder
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("total line without digits: %q", line)
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, fmt.Errorf("total line %q: %w", line, err)
	}
	return n, nil
}

// Report is the parse of a whole batch.
type Report struct {
	Records  []Parsed
	Rows     []Row
	Totals   []int
	Warnings []string
}

// ParseBatch parses results against their records. Warnings are prefixed with
// the 1-based record number; a bad record never stops the others.
func ParseBatch(records []evaluation.Record, results []evaluation.Result) Report {
	n := len(results)
	if len(records) < n {
		n = len(records)
	}
	report := Report{Records: make([]Parsed, 0, n)}
	for i := 0; i < n; i++ {
		parsed := Parse(records[i], results[i])
		report.Records = append(report.Records, parsed)
		report.Rows = append(report.Rows, parsed.Rows...)
		report.Totals = append(report.Totals, parsed.Totals...)
		for _, w := range parsed.Warnings {
			report.Warnings = append(report.Warnings, fmt.Sprintf("record %d: %s", records[i].Index+1, w))
		}
	}
	return report
}
