package tui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mwiater/qaeval/internal/evaluation"
	"github.com/mwiater/qaeval/internal/util"
)

var (
	successfulResult = color.New(color.FgGreen).SprintFunc()
	failedResult     = color.New(color.FgRed).SprintFunc()
)

// PlainReporter returns a progress callback that prints one line per record.
func PlainReporter(out io.Writer) func(evaluation.Progress) {
	return func(p evaluation.Progress) {
		if p.Failed {
			fmt.Fprintf(out, "[%d/%d] %s %s\n", p.Completed, p.Total, failedResult("오류"), util.Preview(p.Err, 120))
			return
		}
		fmt.Fprintf(out, "[%d/%d] %s\n", p.Completed, p.Total, successfulResult("완료"))
	}
}
