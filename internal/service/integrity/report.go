package integrity

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

// Report is the outcome of one integrity run: the persisted run record,
// its issues, and the per-severity tally.
type Report struct {
	Run     *model.IntegrityRun
	Issues  []*model.IntegrityIssue
	Summary model.IntegritySummary
}

// Exit codes for the batch process contract. Schedulers and CI alert on
// anything non-zero.
const (
	ExitClean    = 0
	ExitLow      = 1
	ExitMedium   = 2
	ExitHigh     = 3
	ExitCritical = 4
)

// ExitCode maps the report's highest severity to the process exit code.
func (r *Report) ExitCode() int {
	switch r.Summary.MaxSever {
	case model.SeverityCritical:
		return ExitCritical
	case model.SeverityHigh:
		return ExitHigh
	case model.SeverityMedium:
		return ExitMedium
	case model.SeverityLow:
		return ExitLow
	}
	return ExitClean
}

// String renders the human-readable summary printed by the batch job.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integrity run %s: %s\n", r.Run.ID, r.Run.Status)
	fmt.Fprintf(&b, "total issues: %d\n", r.Summary.Total)
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		if n := r.Summary.Counts[sev]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", sev, n)
		}
	}
	return b.String()
}

func summarize(issues []*model.IntegrityIssue) model.IntegritySummary {
	summary := model.IntegritySummary{
		Counts: make(map[model.Severity]int),
	}
	for _, issue := range issues {
		summary.Total++
		summary.Counts[issue.Severity]++
		if issue.Severity.Rank() > summary.MaxSever.Rank() {
			summary.MaxSever = issue.Severity
		}
	}
	return summary
}
