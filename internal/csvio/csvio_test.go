package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/qaeval/internal/evaluation"
	"github.com/mwiater/qaeval/internal/scoring"
)

var testColumns = Columns{Question: "고객질문", Answer: "상담사답변", Result: "GPT평가결과"}

const bom = "\ufeff"

func TestReadTable(t *testing.T) {
	input := bom + "번호,고객질문,상담사답변\n1,환불 언제 되나요?,3영업일 내 처리됩니다.\n2,\"배송지 변경, 가능한가요?\",\"네, 가능합니다.\n마이페이지를 확인해주세요.\"\n"

	table, err := ReadTable(strings.NewReader(input), testColumns)
	require.NoError(t, err)

	assert.Equal(t, []string{"번호", "고객질문", "상담사답변"}, table.Header)
	require.Equal(t, 2, table.Len())

	records := table.Records()
	require.Len(t, records, 2)
	assert.Equal(t, evaluation.Record{Index: 0, Question: "환불 언제 되나요?", Answer: "3영업일 내 처리됩니다."}, records[0])
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, "배송지 변경, 가능한가요?", records[1].Question)
	assert.Equal(t, "네, 가능합니다.\n마이페이지를 확인해주세요.", records[1].Answer)
}

func TestReadTableMissingColumns(t *testing.T) {
	_, err := ReadTable(strings.NewReader("question,answer\nq,a\n"), testColumns)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"고객질문", "상담사답변"}, missing.Missing)
	assert.Contains(t, err.Error(), "'고객질문', '상담사답변'")

	_, err = ReadTable(strings.NewReader("고객질문,other\nq,a\n"), testColumns)
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"상담사답변"}, missing.Missing)
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""), testColumns)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadTablePadsShortRows(t *testing.T) {
	table, err := ReadTable(strings.NewReader("고객질문,상담사답변,메모\nq1,a1\n"), testColumns)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"q1", "a1", ""}, table.Rows[0])
}

func TestWriteStructured(t *testing.T) {
	rows := []scoring.Row{
		{Question: "q", Answer: "a", Criterion: "1. 문제 파악", Score: "8점", Summary: "좋음, 명확함"},
		{Question: "q", Answer: "a", Criterion: scoring.TotalCriterion, Score: "38점"},
	}

	data, err := StructuredBytes(testColumns, rows)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte(bom)), "expected UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(bom)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"고객질문", "상담사답변", "항목", "점수", "결과 요약"}, records[0])
	assert.Equal(t, []string{"q", "a", "1. 문제 파악", "8점", "좋음, 명확함"}, records[1])
	assert.Equal(t, []string{"q", "a", "total", "38점", ""}, records[2])
}

func TestWriteStructuredEmpty(t *testing.T) {
	data, err := StructuredBytes(testColumns, nil)
	require.NoError(t, err)
	assert.Equal(t, bom+"고객질문,상담사답변,항목,점수,결과 요약\n", string(data))
}

func TestRawRoundTrip(t *testing.T) {
	var input strings.Builder
	input.WriteString("고객질문,상담사답변,채널\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&input, "질문 %d,답변 %d,게시판\n", i, i)
	}
	table, err := ReadTable(strings.NewReader(input.String()), testColumns)
	require.NoError(t, err)

	results := []evaluation.Result{
		evaluation.Success("| 1. 문제 파악 | 8점 | \"인용\" 포함, 쉼표 |\n총점: 40점"),
		evaluation.Failure("context deadline exceeded"),
		evaluation.Success("line1\r\nline2"),
	}

	data, err := RawBytes(testColumns, table, results)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte(bom)))

	back, err := ReadTable(bytes.NewReader(data), Columns{Question: "고객질문", Answer: "상담사답변"})
	require.NoError(t, err)

	assert.Equal(t, []string{"고객질문", "상담사답변", "채널", "GPT평가결과"}, back.Header)
	require.Equal(t, len(results), back.Len())
	for i, res := range results {
		want := strings.ReplaceAll(res.Display(), "\r\n", "\n")
		assert.Equal(t, want, back.Rows[i][3], "row %d", i)
		assert.Equal(t, fmt.Sprintf("질문 %d", i), back.Rows[i][0])
		assert.Equal(t, "게시판", back.Rows[i][2])
	}
	assert.Equal(t, "❌ 에러 발생: context deadline exceeded", back.Rows[1][3])
}

func TestWriteRawRejectsExtraResults(t *testing.T) {
	table, err := ReadTable(strings.NewReader("고객질문,상담사답변\nq,a\n"), testColumns)
	require.NoError(t, err)

	_, err = RawBytes(testColumns, table, []evaluation.Result{evaluation.Success("x"), evaluation.Success("y")})
	assert.Error(t, err)
}

func TestRawOverwritesExistingResultColumn(t *testing.T) {
	input := "고객질문,GPT평가결과,상담사답변\n질문 0,이전 결과,답변 0\n질문 1,,답변 1\n"
	table, err := ReadTable(strings.NewReader(input), testColumns)
	require.NoError(t, err)

	results := []evaluation.Result{evaluation.Success("총점: 40점"), evaluation.Failure("timeout")}
	data, err := RawBytes(testColumns, table, results)
	require.NoError(t, err)

	back, err := ReadTable(bytes.NewReader(data), testColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"고객질문", "GPT평가결과", "상담사답변"}, back.Header)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, []string{"질문 0", "총점: 40점", "답변 0"}, back.Rows[0])
	assert.Equal(t, evaluation.FailurePrefix+"timeout", back.Rows[1][1])
}
