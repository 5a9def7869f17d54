package evaluation

import (
	"context"

	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/rubric"
)

// DefaultLimit is the number of records a batch evaluates when no limit is set.
const DefaultLimit = 10

// Evaluator is the single-call contract the runner depends on.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt string) Result
}

// Runner evaluates records one at a time, in input order.
type Runner struct {
	Evaluator Evaluator
	Limit     int
}

// NewRunner returns a Runner with the given cap; limit <= 0 means DefaultLimit.
func NewRunner(ev Evaluator, limit int) *Runner {
	return &Runner{Evaluator: ev, Limit: limit}
}

func (r *Runner) limit() int {
	if r.Limit <= 0 {
		return DefaultLimit
	}
	return r.Limit
}

// Truncate keeps the first limit records and reports how many were dropped.
func (r *Runner) Truncate(records []Record) (kept []Record, dropped int) {
	n := r.limit()
	if len(records) <= n {
		return records, 0
	}
	return records[:n], len(records) - n
}

// Run evaluates the first Limit records sequentially and returns exactly one
// Result per evaluated record, in order. onProgress, if set, is called after
// every record. Once ctx is done, the remaining records are recorded as
// failures without contacting the service.
func (r *Runner) Run(ctx context.Context, records []Record, onProgress func(Progress)) []Result {
	kept, dropped := r.Truncate(records)
	if dropped > 0 {
		logging.LogEvent("batch: evaluating first %d of %d records, %d dropped", len(kept), len(records), dropped)
	}

	total := len(kept)
	results := make([]Result, 0, total)
	for i, rec := range kept {
		var res Result
		if err := ctx.Err(); err != nil {
			res = Failure(err.Error())
		} else {
			prompt := rubric.Build(rec.Question, rec.Answer, rubric.ModeBatch)
			res = r.Evaluator.Evaluate(ctx, prompt)
		}
		results = append(results, res)

		if res.Failed() {
			logging.LogEvent("[%d/%d] record %d failed: %s", i+1, total, rec.Index+1, res.Err())
		} else {
			logging.LogEvent("[%d/%d] record %d evaluated", i+1, total, rec.Index+1)
		}
		if onProgress != nil {
			onProgress(Progress{
				Completed: i + 1,
				Total:     total,
				Index:     rec.Index,
				Failed:    res.Failed(),
				Err:       res.Err(),
			})
		}
	}
	return results
}
