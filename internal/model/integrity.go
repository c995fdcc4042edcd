package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank orders severities LOW < MEDIUM < HIGH < CRITICAL. Unknown
// severities rank 0 so they never dominate a real finding.
func (s Severity) Rank() int {
	return severityRank[s]
}

type IntegrityRunStatus string

const (
	IntegrityRunRunning IntegrityRunStatus = "running"
	IntegrityRunPassed  IntegrityRunStatus = "passed"
	IntegrityRunFailed  IntegrityRunStatus = "failed"
)

// IntegrityRun is one invocation of the integrity checker. Issues are
// children created during the run and never mutated afterwards.
type IntegrityRun struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	TenantID    uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	RunType     string             `json:"run_type" db:"run_type"`
	StartedAt   time.Time          `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty" db:"finished_at"`
	Status      IntegrityRunStatus `json:"status" db:"status"`
	SummaryJSON json.RawMessage    `json:"summary_json" db:"summary_json"`
}

type IntegrityIssue struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	RunID       uuid.UUID       `json:"run_id" db:"run_id"`
	Severity    Severity        `json:"severity" db:"severity"`
	EntityType  string          `json:"entity_type" db:"entity_type"`
	EntityID    *uuid.UUID      `json:"entity_id,omitempty" db:"entity_id"`
	DetailsJSON json.RawMessage `json:"details_json" db:"details_json"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// IntegritySummary is the per-severity issue tally persisted with a run.
type IntegritySummary struct {
	Total    int              `json:"total"`
	Counts   map[Severity]int `json:"counts"`
	MaxSever Severity         `json:"max_severity,omitempty"`
}
