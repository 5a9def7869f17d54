package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/qaeval/internal/evaluation"
)

var testRecord = evaluation.Record{Index: 0, Question: "배송이 늦어요", Answer: "확인 후 안내드리겠습니다"}

const sampleResponse = `다음은 평가 결과입니다.

| 항목 | 점수 | 결과 요약 |
|------|------|-------------|
| 1. 문제 파악 | 8점 | 고객의 요청은 이해했지만 회수 확인 방식은 빠졌음 |
| 2. 응답 정확도 | 7점 | 기준에 맞는 안내 |
| 3. 공감 표현 | 6점 | 공감 표현이 부족함 |
| 4. 해결책 제시 | 9점 | 구체적인 해결 방향 제시 |
| 5. 전반적 인상 | 8점 | 성의 있는 답변 |

총점: 38점`

func TestParseTableAndTotal(t *testing.T) {
	parsed := Parse(testRecord, evaluation.Success(sampleResponse))

	require.Len(t, parsed.Rows, 8)
	assert.Equal(t, []int{38}, parsed.Totals)
	assert.Empty(t, parsed.Warnings)

	first := parsed.Rows[2]
	assert.Equal(t, Row{
		Question:  "배송이 늦어요",
		Answer:    "확인 후 안내드리겠습니다",
		Criterion: "1. 문제 파악",
		Score:     "8점",
		Summary:   "고객의 요청은 이해했지만 회수 확인 방식은 빠졌음",
	}, first)

	wantCriteria := []string{"항목", "------", "1. 문제 파악", "2. 응답 정확도", "3. 공감 표현", "4. 해결책 제시", "5. 전반적 인상", TotalCriterion}
	for i, row := range parsed.Rows {
		assert.Equal(t, wantCriteria[i], row.Criterion)
	}

	last := parsed.Rows[7]
	assert.Equal(t, TotalCriterion, last.Criterion)
	assert.Equal(t, "38점", last.Score)
	assert.Empty(t, last.Summary)

	total, ok := parsed.Total()
	require.True(t, ok)
	assert.Equal(t, 38, total)
}

func TestParseSingleTableLine(t *testing.T) {
	parsed := Parse(testRecord, evaluation.Success("| 1. Intent | 8 | understood request |"))

	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "1. Intent", parsed.Rows[0].Criterion)
	assert.Equal(t, "8", parsed.Rows[0].Score)
	assert.Equal(t, "understood request", parsed.Rows[0].Summary)
	assert.Empty(t, parsed.Totals)
}

func TestParseTotalLines(t *testing.T) {
	cases := []struct {
		line  string
		total int
		score string
	}{
		{line: "총점: 42점", total: 42, score: "42점"},
		{line: "total: 42", total: 42, score: "42점"},
		{line: "**Total Score**: 35", total: 35, score: "35점"},
		{line: "   총점 = 4 0 점", total: 40, score: "40점"},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			parsed := Parse(testRecord, evaluation.Success(tc.line))
			require.Len(t, parsed.Rows, 1)
			assert.Equal(t, []int{tc.total}, parsed.Totals)
			assert.Equal(t, TotalCriterion, parsed.Rows[0].Criterion)
			assert.Equal(t, tc.score, parsed.Rows[0].Score)
		})
	}
}

func TestParseKeepsLineOrderForKRows(t *testing.T) {
	raw := "intro\n| a | 1 | x |\nnoise line\n| b | 2 | y |\n| c | 3 | z |\n"
	parsed := Parse(testRecord, evaluation.Success(raw))

	require.Len(t, parsed.Rows, 3)
	assert.Equal(t, "a", parsed.Rows[0].Criterion)
	assert.Equal(t, "b", parsed.Rows[1].Criterion)
	assert.Equal(t, "c", parsed.Rows[2].Criterion)
	assert.Empty(t, parsed.Totals)
}

func TestParseEmitsEveryThreeCellLine(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		criteria []string
	}{
		{
			name:     "header and delimiter",
			raw:      "| 항목 | 점수 | 결과 요약 |\n|---|---|---|\n| 1. 문제 파악 | 8점 | ok |\n| 2. 응답 정확도 | 7점 | ok |",
			criteria: []string{"항목", "---", "1. 문제 파악", "2. 응답 정확도"},
		},
		{
			name:     "delimiter after a data row",
			raw:      "| 1. 문제 파악 | 8점 | ok |\n|---|---|---|\n| 2. 응답 정확도 | 7점 | ok |",
			criteria: []string{"1. 문제 파악", "---", "2. 응답 정확도"},
		},
		{
			name:     "aligned delimiter",
			raw:      "| a | b | c |\n|:--|:-:|--:|",
			criteria: []string{"a", ":--"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := Parse(testRecord, evaluation.Success(tc.raw))

			require.Len(t, parsed.Rows, len(tc.criteria))
			for i, want := range tc.criteria {
				assert.Equal(t, want, parsed.Rows[i].Criterion)
			}
			assert.Empty(t, parsed.Warnings)
		})
	}
}

func TestParseTotalNeedsWholeWord(t *testing.T) {
	cases := []struct {
		line   string
		totals []int
	}{
		{line: "totally resolved in 3 days", totals: nil},
		{line: "subtotal 12", totals: nil},
		{line: "TOTAL = 41", totals: []int{41}},
		{line: "Total: 39점", totals: []int{39}},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			parsed := Parse(testRecord, evaluation.Success(tc.line))
			assert.Equal(t, tc.totals, parsed.Totals)
		})
	}
}

func TestParseIgnoresWrongShapes(t *testing.T) {
	raw := "| only | two |\n| a | b | c | d |\n|no trailing pipe | x | y\n| keep | 5 | fine |"
	parsed := Parse(testRecord, evaluation.Success(raw))

	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "keep", parsed.Rows[0].Criterion)
}

func TestParseTableRowWithMarkerIsTableRow(t *testing.T) {
	parsed := Parse(testRecord, evaluation.Success("| 총점 | 38점 | 전반적으로 양호 |"))

	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "총점", parsed.Rows[0].Criterion)
	assert.Empty(t, parsed.Totals)
}

func TestParseTotalWithoutDigitsWarns(t *testing.T) {
	raw := "| a | 1 | x |\n총점: 미정\n| b | 2 | y |"
	parsed := Parse(testRecord, evaluation.Success(raw))

	require.Len(t, parsed.Rows, 2)
	assert.Empty(t, parsed.Totals)
	require.Len(t, parsed.Warnings, 1)
	assert.Contains(t, parsed.Warnings[0], "without digits")
}

func TestParseFailureYieldsNothing(t *testing.T) {
	parsed := Parse(testRecord, evaluation.Failure("error: timeout"))

	assert.Empty(t, parsed.Rows)
	assert.Empty(t, parsed.Totals)
	assert.Empty(t, parsed.Warnings)
	_, ok := parsed.Total()
	assert.False(t, ok)
}

func TestParseUnstructuredSuccessWarns(t *testing.T) {
	parsed := Parse(testRecord, evaluation.Success("error: timeout"))

	assert.Empty(t, parsed.Rows)
	assert.Empty(t, parsed.Totals)
	assert.Equal(t, []string{"no score table found in response"}, parsed.Warnings)
}

func TestParseBatch(t *testing.T) {
	records := []evaluation.Record{
		{Index: 0, Question: "q1", Answer: "a1"},
		{Index: 1, Question: "q2", Answer: "a2"},
		{Index: 2, Question: "q3", Answer: "a3"},
	}
	results := []evaluation.Result{
		evaluation.Success("| a | 8 | x |\n총점: 40점"),
		evaluation.Failure("context deadline exceeded"),
		evaluation.Success("| b | 9 | y |\n총점: 44점\n총점: ?"),
	}

	report := ParseBatch(records, results)

	require.Len(t, report.Records, 3)
	assert.Equal(t, []int{40, 44}, report.Totals)
	require.Len(t, report.Rows, 4)
	assert.Equal(t, "q1", report.Rows[0].Question)
	assert.Equal(t, "q3", report.Rows[2].Question)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "record 3:")

	mean, ok := Mean(report.Totals)
	require.True(t, ok)
	assert.InDelta(t, 42.0, mean, 1e-9)
}

func TestParseBatchLengthMismatch(t *testing.T) {
	records := []evaluation.Record{{Index: 0}}
	results := []evaluation.Result{evaluation.Success("총점 1"), evaluation.Success("총점 2")}

	report := ParseBatch(records, results)
	assert.Len(t, report.Records, 1)
	assert.Equal(t, []int{1}, report.Totals)
}
