// Package audit runs the supplier security questionnaire.
package audit

import (
	"fmt"
	"math"
	"sync"

	"github.com/sloppy/threatone/internal/intel"
)

// Run holds the yes/no answers of one questionnaire pass, keyed by question
// id. The current question is derived from the answers and the live question
// list, so editing or deleting questions mid-run never leaves it dangling.
type Run struct {
	mu      sync.Mutex
	answers map[int64]bool
}

func NewRun() *Run {
	return &Run{answers: make(map[int64]bool)}
}

// Current returns the first unanswered question in list order.
func (r *Run) Current(questions []intel.AuditQuestion) (intel.AuditQuestion, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range questions {
		if _, ok := r.answers[q.ID]; !ok {
			return q, i, true
		}
	}
	return intel.AuditQuestion{}, len(questions), false
}

// Answer records the answer for a question.
func (r *Run) Answer(id int64, yes bool) {
	r.mu.Lock()
	r.answers[id] = yes
	r.mu.Unlock()
}

// Finished reports whether every listed question has an answer.
func (r *Run) Finished(questions []intel.AuditQuestion) bool {
	_, _, pending := r.Current(questions)
	return !pending
}

func (r *Run) Reset() {
	r.mu.Lock()
	r.answers = make(map[int64]bool)
	r.mu.Unlock()
}

func (r *Run) answered(id int64) (yes, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	yes, ok = r.answers[id]
	return yes, ok
}

// Result is the scored outcome of a run.
type Result struct {
	Score    int    `json:"score"`
	Label    string `json:"label"`
	Approved bool   `json:"approved"`
}

const (
	LabelExcellent = "Excellent"
	LabelModerate  = "Moderate"
	LabelLow       = "Low"
	LabelNA        = "N/A"

	approvalThreshold = 70
)

// Score rates the run against the current questions. Answers to questions
// no longer listed are ignored.
func (r *Run) Score(questions []intel.AuditQuestion) Result {
	if len(questions) == 0 {
		return Result{Label: LabelNA}
	}
	yes := 0
	for _, q := range questions {
		if v, ok := r.answered(q.ID); ok && v {
			yes++
		}
	}
	score := int(math.Round(float64(yes) / float64(len(questions)) * 100))
	res := Result{Score: score, Approved: score >= approvalThreshold}
	switch {
	case score >= 80:
		res.Label = LabelExcellent
	case score >= 60:
		res.Label = LabelModerate
	default:
		res.Label = LabelLow
	}
	return res
}

// ReportLines renders one "[YES]"/"[NO]" line per question. Unanswered
// questions count as no.
func (r *Run) ReportLines(questions []intel.AuditQuestion) []string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		mark := "[NO]"
		if v, ok := r.answered(q.ID); ok && v {
			mark = "[YES]"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)", mark, q.Text, q.Category))
	}
	return lines
}

// Summary is the banner line of the text report.
func (res Result) Summary() string {
	if res.Label == LabelNA {
		return "Final score: N/A"
	}
	verdict := "REJECTED"
	if res.Approved {
		verdict = "APPROVED"
	}
	return fmt.Sprintf("Final score: %d%% - Rating: %s - %s", res.Score, res.Label, verdict)
}
