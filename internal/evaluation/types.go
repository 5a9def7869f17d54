// Package evaluation sends transcripts to the completion service and runs
// capped sequential batches.
package evaluation

import "fmt"

// FailurePrefix starts the display text of every failed evaluation.
const FailurePrefix = "❌ 에러 발생: "

// Record is one customer question and agent answer. Index is the zero-based
// position in the input and ties results back to their row.
type Record struct {
	Index    int
	Question string
	Answer   string
}

// Result is the outcome of one evaluation: either the model's raw text or a
// failure message. The zero value is not a valid Result.
type Result struct {
	text   string
	failed bool
}

// Success wraps raw model output.
func Success(raw string) Result { return Result{text: raw} }

// Failure wraps the description of a remote call error.
func Failure(msg string) Result { return Result{text: msg, failed: true} }

// Failed reports whether the evaluation did not produce model output.
func (r Result) Failed() bool { return r.failed }

// Raw returns the model output, or "" for a failure.
func (r Result) Raw() string {
	if r.failed {
		return ""
	}
	return r.text
}

// Err returns the failure message, or "" for a success.
func (r Result) Err() string {
	if r.failed {
		return r.text
	}
	return ""
}

// Display returns the text shown to users and written to the raw export:
// the model output, or the failure marker followed by the error.
func (r Result) Display() string {
	if r.failed {
		return FailurePrefix + r.text
	}
	return r.text
}

func (r Result) String() string {
	if r.failed {
		return fmt.Sprintf("Failure(%q)", r.text)
	}
	return fmt.Sprintf("Success(%d bytes)", len(r.text))
}

// Progress is reported after every record of a batch, successful or not.
type Progress struct {
	Completed int
	Total     int
	Index     int
	Failed    bool
	Err       string
}

// Fraction returns completion in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}
