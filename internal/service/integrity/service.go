package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/internal/service/calc"
	"github.com/jwalitptl/nutrition-api/pkg/logger"
	"github.com/jwalitptl/nutrition-api/pkg/metrics"
)

// Checker re-verifies the core's invariants against live data: canary
// calculations, dataset sanity, snapshot content hashes, and published
// artifact immutability. It is meant to run as a single exclusive batch
// job; callers serialize concurrent runs.
type Checker struct {
	repo    repository.IntegrityRepository
	engine  *calc.Engine
	limiter *rate.Limiter
	logger  *logger.Logger
	metrics *metrics.Metrics
}

type Config struct {
	// ScanRate bounds row-level work against live tables. Zero disables
	// throttling.
	ScanRate  rate.Limit
	ScanBurst int
}

func NewChecker(repo repository.IntegrityRepository, engine *calc.Engine, cfg Config, logger *logger.Logger, metrics *metrics.Metrics) *Checker {
	var limiter *rate.Limiter
	if cfg.ScanRate > 0 {
		burst := cfg.ScanBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.ScanRate, burst)
	}
	return &Checker{
		repo:    repo,
		engine:  engine,
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, tenantID uuid.UUID) ([]*model.IntegrityIssue, error)
}

// Run executes all check stages for a tenant and persists the run with
// its issues. Detected violations become graded issues and the run
// completes normally; only genuinely unexpected failures (e.g. the store
// going away mid-run) return an error and leave the run unfinished.
func (c *Checker) Run(ctx context.Context, tenantID uuid.UUID, runType string) (*Report, error) {
	started := time.Now()
	run := &model.IntegrityRun{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RunType:     runType,
		StartedAt:   started,
		Status:      model.IntegrityRunRunning,
		SummaryJSON: json.RawMessage(`{}`),
	}
	if err := c.repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	var timer *prometheus.Timer
	if c.metrics != nil {
		timer = prometheus.NewTimer(c.metrics.IntegrityRunDuration)
	}

	stages := []stage{
		{"canary_calculations", c.checkCanaries},
		{"dataset_sanity", c.checkDatasetSanity},
		{"snapshot_integrity", c.checkSnapshots},
		{"immutability", c.checkImmutability},
		{"access_control_smoke", c.checkAccessControl},
	}

	var issues []*model.IntegrityIssue
	for _, st := range stages {
		found, err := st.run(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.name, err)
		}

		for _, issue := range found {
			issue.ID = uuid.New()
			issue.RunID = run.ID
			issue.CreatedAt = time.Now()
			if err := c.repo.AddIssue(ctx, issue); err != nil {
				return nil, fmt.Errorf("stage %s: %w", st.name, err)
			}
			if c.metrics != nil {
				c.metrics.IntegrityIssues.WithLabelValues(string(issue.Severity), issue.EntityType).Inc()
			}
		}
		issues = append(issues, found...)

		c.logger.Info("integrity stage finished", "stage", st.name, "issues", len(found))
	}

	summary := summarize(issues)

	// Only CRITICAL fails the run; lower-severity findings are reported
	// but the run still passes.
	status := model.IntegrityRunPassed
	if summary.MaxSever == model.SeverityCritical {
		status = model.IntegrityRunFailed
	}

	finished := time.Now()
	if err := c.repo.FinishRun(ctx, run.ID, status, &summary, finished); err != nil {
		return nil, err
	}
	run.Status = status
	run.FinishedAt = &finished
	if raw, err := json.Marshal(summary); err == nil {
		run.SummaryJSON = raw
	}

	if timer != nil {
		timer.ObserveDuration()
	}

	return &Report{Run: run, Issues: issues, Summary: summary}, nil
}

func (c *Checker) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func issueDetails(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
