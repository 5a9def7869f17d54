// internal/cli/evaluate.go
package qaeval

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/qaeval/internal/qa"
	"github.com/mwiater/qaeval/internal/scoring"
)

var (
	evalQuestion string
	evalAnswer   string
)

// evaluateCmd grades one question/answer pair.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single question and answer",
	Long:  `The 'evaluate' command sends one customer question and agent answer to the model and prints the rubric scores.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(getConfig())
		report, err := svc.EvaluateSingle(cmd.Context(), evalQuestion, evalAnswer)
		if err != nil {
			return err
		}
		printSingleReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func printSingleReport(out io.Writer, report *qa.SingleReport) {
	if report.Result.Failed() {
		fmt.Fprintln(out, color.RedString(report.Result.Display()))
		return
	}

	fmt.Fprintln(out, "📝 단건 평가 결과")
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.Result.Raw())
	fmt.Fprintln(out)

	for _, row := range report.Parsed.Rows {
		if row.Criterion == scoring.TotalCriterion {
			continue
		}
		fmt.Fprintf(out, "  %-20s %6s  %s\n", row.Criterion, row.Score, row.Summary)
	}
	if total, ok := report.Parsed.Total(); ok {
		fmt.Fprintln(out, color.GreenString("총점 %d점", total))
	}
	for _, w := range report.Parsed.Warnings {
		fmt.Fprintln(out, color.YellowString("⚠ %s", w))
	}
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalQuestion, "question", "q", "", "customer question")
	evaluateCmd.Flags().StringVarP(&evalAnswer, "answer", "a", "", "agent answer")
	rootCmd.AddCommand(evaluateCmd)
}
