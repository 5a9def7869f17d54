// internal/cli/batch.go
package qaeval

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/qaeval/internal/csvio"
	"github.com/mwiater/qaeval/internal/evaluation"
	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/qa"
	"github.com/mwiater/qaeval/internal/tui"
	"github.com/mwiater/qaeval/internal/util"
)

var (
	batchInput  string
	batchOutDir string
	batchPlain  bool
)

// runProgress shows batch progress; tests replace it to skip the terminal UI.
var runProgress = func(ctx context.Context, total int, work tui.Work) error {
	return tui.RunBatch(ctx, "📁 다건 QA 평가", total, work)
}

// batchCmd grades up to batchLimit rows of a CSV file.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate question/answer pairs from a CSV file",
	Long: `The 'batch' command evaluates the first rows of a CSV file containing question and
answer columns, writes a structured and a raw export, and prints the average total score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		svc := newService(cfg)
		out := cmd.OutOrStdout()

		file, err := os.Open(batchInput)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		table, err := svc.ReadTable(file)
		file.Close()
		if err != nil {
			return err
		}
		if table.Len() == 0 {
			return qa.ErrNoRecords
		}

		total := table.Len()
		if total > svc.Limit() {
			total = svc.Limit()
		}

		var report *qa.BatchReport
		work := func(ctx context.Context, onProgress func(evaluation.Progress)) error {
			var err error
			report, err = svc.RunBatch(ctx, table, onProgress)
			return err
		}

		if batchPlain {
			err = work(cmd.Context(), tui.PlainReporter(out))
		} else {
			// The progress view owns the terminal; keep log lines in the file only.
			if err := logging.Init(cfg.LogFilePath(), false); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			err = runProgress(cmd.Context(), total, work)
		}
		if err != nil {
			return err
		}

		paths, err := writeExports(batchOutDir, report)
		if err != nil {
			return err
		}
		printBatchSummary(out, report, paths)
		return nil
	},
}

func writeExports(dir string, report *qa.BatchReport) ([]string, error) {
	structured, err := report.StructuredCSV()
	if err != nil {
		return nil, fmt.Errorf("render structured export: %w", err)
	}
	raw, err := report.RawCSV()
	if err != nil {
		return nil, fmt.Errorf("render raw export: %w", err)
	}

	structuredPath := filepath.Join(dir, csvio.StructuredFileName)
	rawPath := filepath.Join(dir, csvio.RawFileName)
	if err := util.WriteFile(structuredPath, structured); err != nil {
		return nil, fmt.Errorf("write %s: %w", structuredPath, err)
	}
	if err := util.WriteFile(rawPath, raw); err != nil {
		return nil, fmt.Errorf("write %s: %w", rawPath, err)
	}
	logging.LogEvent("batch %s: wrote %s and %s", report.ID, structuredPath, rawPath)
	return []string{structuredPath, rawPath}, nil
}

func printBatchSummary(out io.Writer, report *qa.BatchReport, paths []string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, color.GreenString("총 %d건 평가 완료! (실패 %d건)", len(report.Results), report.Failed))
	if notice := report.TruncationNotice(); notice != "" {
		fmt.Fprintln(out, color.YellowString("⚠ %s", notice))
	}
	fmt.Fprintf(out, "📈 %s\n", report.MeanSummary())
	for _, w := range report.Warnings() {
		fmt.Fprintln(out, color.YellowString("⚠ 결과 파싱 오류: %s", w))
	}
	for _, p := range paths {
		fmt.Fprintf(out, "⬇ %s\n", p)
	}
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "CSV file with question and answer columns")
	batchCmd.Flags().StringVarP(&batchOutDir, "out-dir", "o", ".", "directory for the exported CSV files")
	batchCmd.Flags().BoolVar(&batchPlain, "plain", false, "print one line per record instead of the progress bar")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
