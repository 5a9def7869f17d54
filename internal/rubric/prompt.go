// Package rubric renders the fixed customer-service QA grading prompt.
package rubric

import (
	"fmt"
	"strings"
)

// Mode selects the prompt wording. Batch prompts carry a literal example
// table and ask for a trailing total line so the output can be parsed.
type Mode int

const (
	// ModeSingle is used for one interactive evaluation.
	ModeSingle Mode = iota
	// ModeBatch is used for every record of a CSV batch.
	ModeBatch
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeBatch:
		return "batch"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MaxScore is the per-criterion ceiling.
const MaxScore = 10

// Criterion is one rubric line.
type Criterion struct {
	Name     string
	Question string
}

var criteria = []Criterion{
	{Name: "문제 파악", Question: "고객 의도를 정확히 이해했는가?"},
	{Name: "응답 정확도", Question: "정보 기준에 맞는 정확한 답변인가?"},
	{Name: "공감 표현", Question: "정중하고 공감 어린 표현이 있었는가?"},
	{Name: "해결책 제시", Question: "고객 문제 해결 방향을 제시했는가?"},
	{Name: "전반적 인상", Question: "성의와 안정감이 느껴졌는가?"},
}

// Criteria returns a copy of the rubric criteria in scoring order.
func Criteria() []Criterion {
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	return out
}

const role = "너는 고객센터 QA 평가 전문가야."

const batchFormat = `아래 고객 질문과 상담사 답변을 바탕으로 아래 5가지 항목에 대해 점수(10점 만점)와 짧은 코멘트를 작성하고,
다음과 같은 **테이블 형식**으로 출력해줘:

형식:
| 항목 | 점수 | 결과 요약 |
|------|------|-------------|
| 1. 문제 파악 | 8점 | 고객의 요청은 이해했지만 회수 확인 방식은 빠졌음 |
...

마지막에는 총점도 따로 출력해줘.`

// Build renders the grading prompt. Empty inputs are rendered as-is; callers
// validate before building.
func Build(question, answer string, mode Mode) string {
	var b strings.Builder
	b.WriteString(role)
	b.WriteString("\n\n")

	if mode == ModeBatch {
		b.WriteString(batchFormat)
		b.WriteString("\n\n")
	}

	b.WriteString("[고객 질문]\n")
	b.WriteString(question)
	b.WriteString("\n\n[상담사 답변]\n")
	b.WriteString(answer)
	b.WriteString("\n\n[평가 항목]\n")
	writeCriteria(&b)
	b.WriteString("\n")

	if mode == ModeBatch {
		b.WriteString("**꼭 마크다운 테이블 형식으로 출력해줘.**\n")
	} else {
		fmt.Fprintf(&b, "**각 항목에 대해 점수(%d점 만점)와 간단한 코멘트를 테이블로 마크다운 형식으로 출력해줘.**\n", MaxScore)
	}
	return b.String()
}

func writeCriteria(b *strings.Builder) {
	for i, c := range criteria {
		fmt.Fprintf(b, "%d. %s – %s\n", i+1, c.Name, c.Question)
	}
}
