package integrity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/service/calc"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
	"github.com/jwalitptl/nutrition-api/pkg/hash"
	"github.com/jwalitptl/nutrition-api/pkg/logger"
)

type fakeIntegrityRepo struct {
	runs     []*model.IntegrityRun
	issues   []*model.IntegrityIssue
	finished map[uuid.UUID]model.IntegrityRunStatus

	negatives []*model.NutrientRow
	foods     []*model.Food
	refs      []*model.PlanItemSnapshotRef
	snapshots map[uuid.UUID]*model.FoodSnapshot
	versions  []*model.PlanVersion
	rowCount  int64
}

func newFakeIntegrityRepo() *fakeIntegrityRepo {
	return &fakeIntegrityRepo{
		finished:  make(map[uuid.UUID]model.IntegrityRunStatus),
		snapshots: make(map[uuid.UUID]*model.FoodSnapshot),
		rowCount:  1,
	}
}

func (f *fakeIntegrityRepo) CreateRun(ctx context.Context, run *model.IntegrityRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeIntegrityRepo) FinishRun(ctx context.Context, runID uuid.UUID, status model.IntegrityRunStatus, summary *model.IntegritySummary, finishedAt time.Time) error {
	f.finished[runID] = status
	return nil
}

func (f *fakeIntegrityRepo) AddIssue(ctx context.Context, issue *model.IntegrityIssue) error {
	f.issues = append(f.issues, issue)
	return nil
}

func (f *fakeIntegrityRepo) ListNegativeNutrientRows(ctx context.Context, tenantID uuid.UUID) ([]*model.NutrientRow, error) {
	return f.negatives, nil
}

func (f *fakeIntegrityRepo) ListFoods(ctx context.Context, tenantID uuid.UUID) ([]*model.Food, error) {
	return f.foods, nil
}

func (f *fakeIntegrityRepo) ListSnapshotRefs(ctx context.Context, tenantID uuid.UUID) ([]*model.PlanItemSnapshotRef, error) {
	return f.refs, nil
}

func (f *fakeIntegrityRepo) GetSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*model.FoodSnapshot, error) {
	if s, ok := f.snapshots[id]; ok {
		return s, nil
	}
	return nil, apperrors.NewNotFound("food snapshot", nil)
}

func (f *fakeIntegrityRepo) ListPublishedPlanVersions(ctx context.Context, tenantID uuid.UUID) ([]*model.PlanVersion, error) {
	return f.versions, nil
}

func (f *fakeIntegrityRepo) CountAuditableRows(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return f.rowCount, nil
}

func newTestChecker(repo *fakeIntegrityRepo) *Checker {
	return NewChecker(repo, calc.NewEngine(), Config{}, logger.NewLogger(nil), nil)
}

func validSnapshot(t *testing.T) *model.FoodSnapshot {
	t.Helper()
	raw, contentHash, err := hash.MarshalCanonical(model.SnapshotPayload{
		Nutrients: map[string]float64{"energy_kcal": 120, "protein_g": 4.5},
		Source:    "TACO",
		Per100g:   true,
	})
	require.NoError(t, err)
	return &model.FoodSnapshot{
		ID:           uuid.New(),
		SnapshotJSON: raw,
		ContentHash:  contentHash,
	}
}

func TestRunCleanTenant(t *testing.T) {
	repo := newFakeIntegrityRepo()
	snapshot := validSnapshot(t)
	repo.snapshots[snapshot.ID] = snapshot
	repo.refs = []*model.PlanItemSnapshotRef{{PlanItemID: uuid.New(), SnapshotID: snapshot.ID}}

	published := time.Now().Add(-time.Hour)
	repo.versions = []*model.PlanVersion{{
		ID:          uuid.New(),
		Status:      "published",
		UpdatedAt:   published.Add(-time.Minute),
		PublishedAt: &published,
	}}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "scheduled")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunPassed, report.Run.Status)
	assert.Equal(t, ExitClean, report.ExitCode())
	assert.Empty(t, report.Issues)
	assert.Equal(t, 0, report.Summary.Total)
	require.Len(t, repo.runs, 1)
	assert.Equal(t, model.IntegrityRunPassed, repo.finished[repo.runs[0].ID])
	assert.NotNil(t, report.Run.FinishedAt)
}

func TestRunHashMismatchIsCritical(t *testing.T) {
	repo := newFakeIntegrityRepo()
	snapshot := validSnapshot(t)
	snapshot.ContentHash = "deadbeef"
	repo.snapshots[snapshot.ID] = snapshot
	repo.refs = []*model.PlanItemSnapshotRef{{PlanItemID: uuid.New(), SnapshotID: snapshot.ID}}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunFailed, report.Run.Status)
	assert.Equal(t, ExitCritical, report.ExitCode())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, model.SeverityCritical, report.Issues[0].Severity)
	assert.Equal(t, "food_snapshot", report.Issues[0].EntityType)
	require.NotNil(t, report.Issues[0].EntityID)
	assert.Equal(t, snapshot.ID, *report.Issues[0].EntityID)
}

func TestRunMissingSnapshotIsCritical(t *testing.T) {
	repo := newFakeIntegrityRepo()
	danglingID := uuid.New()
	repo.refs = []*model.PlanItemSnapshotRef{{PlanItemID: uuid.New(), SnapshotID: danglingID}}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunFailed, report.Run.Status)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, model.SeverityCritical, report.Issues[0].Severity)
	require.NotNil(t, report.Issues[0].EntityID)
	assert.Equal(t, danglingID, *report.Issues[0].EntityID)
}

func TestRunNegativeNutrientIsHigh(t *testing.T) {
	repo := newFakeIntegrityRepo()
	rowID := uuid.New()
	repo.negatives = []*model.NutrientRow{{
		ID:          rowID,
		FoodID:      uuid.New(),
		Source:      "TACO",
		NutrientKey: "protein_g",
		Per100g:     -3,
	}}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	// HIGH is reported but does not fail the run.
	assert.Equal(t, model.IntegrityRunPassed, report.Run.Status)
	assert.Equal(t, ExitHigh, report.ExitCode())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, model.SeverityHigh, report.Issues[0].Severity)
	assert.Equal(t, "nutrient_row", report.Issues[0].EntityType)
	require.NotNil(t, report.Issues[0].EntityID)
	assert.Equal(t, rowID, *report.Issues[0].EntityID)
}

func TestRunMacroEnergyMismatchIsMedium(t *testing.T) {
	repo := newFakeIntegrityRepo()
	repo.foods = []*model.Food{
		{
			// 10*4 + 20*4 + 8*9 = 192 kcal, within 10% of 200.
			ID:         uuid.New(),
			Name:       "consistent food",
			EnergyKcal: 200,
			ProteinG:   10,
			CarbsG:     20,
			FatG:       8,
		},
		{
			// Declared 100 kcal but macros imply 200.
			ID:         uuid.New(),
			Name:       "inconsistent food",
			EnergyKcal: 100,
			ProteinG:   25,
			CarbsG:     25,
			FatG:       0,
		},
	}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunPassed, report.Run.Status)
	assert.Equal(t, ExitMedium, report.ExitCode())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, model.SeverityMedium, report.Issues[0].Severity)
	assert.Equal(t, "food", report.Issues[0].EntityType)
	assert.Equal(t, repo.foods[1].ID, *report.Issues[0].EntityID)
}

func TestRunPostPublicationEditIsCritical(t *testing.T) {
	repo := newFakeIntegrityRepo()
	published := time.Now().Add(-time.Hour)
	editedID := uuid.New()
	repo.versions = []*model.PlanVersion{
		{
			ID:          uuid.New(),
			Status:      "published",
			UpdatedAt:   published.Add(-time.Minute),
			PublishedAt: &published,
		},
		{
			ID:          editedID,
			Status:      "published",
			UpdatedAt:   published.Add(time.Minute),
			PublishedAt: &published,
		},
	}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunFailed, report.Run.Status)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, model.SeverityCritical, report.Issues[0].Severity)
	assert.Equal(t, "plan_version", report.Issues[0].EntityType)
	assert.Equal(t, editedID, *report.Issues[0].EntityID)
}

func TestRunEmptyTenantIsLow(t *testing.T) {
	repo := newFakeIntegrityRepo()
	repo.rowCount = 0

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunPassed, report.Run.Status)
	assert.Equal(t, ExitLow, report.ExitCode())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, model.SeverityLow, report.Issues[0].Severity)
	assert.Equal(t, "tenant", report.Issues[0].EntityType)
}

func TestRunHighestSeverityWins(t *testing.T) {
	repo := newFakeIntegrityRepo()
	repo.rowCount = 0
	repo.negatives = []*model.NutrientRow{{ID: uuid.New(), Per100g: -1}}
	snapshot := validSnapshot(t)
	snapshot.ContentHash = "tampered"
	repo.snapshots[snapshot.ID] = snapshot
	repo.refs = []*model.PlanItemSnapshotRef{{PlanItemID: uuid.New(), SnapshotID: snapshot.ID}}

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	assert.Equal(t, model.IntegrityRunFailed, report.Run.Status)
	assert.Equal(t, ExitCritical, report.ExitCode())
	assert.Equal(t, model.SeverityCritical, report.Summary.MaxSever)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Counts[model.SeverityCritical])
	assert.Equal(t, 1, report.Summary.Counts[model.SeverityHigh])
	assert.Equal(t, 1, report.Summary.Counts[model.SeverityLow])
	assert.Len(t, repo.issues, 3)
}

func TestRunPersistsSummary(t *testing.T) {
	repo := newFakeIntegrityRepo()
	repo.rowCount = 0

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "scheduled")
	require.NoError(t, err)

	var summary model.IntegritySummary
	require.NoError(t, json.Unmarshal(report.Run.SummaryJSON, &summary))
	assert.Equal(t, report.Summary.Total, summary.Total)
	assert.Equal(t, report.Summary.MaxSever, summary.MaxSever)
}

func TestReportString(t *testing.T) {
	repo := newFakeIntegrityRepo()
	repo.rowCount = 0

	report, err := newTestChecker(repo).Run(context.Background(), uuid.New(), "manual")
	require.NoError(t, err)

	out := report.String()
	assert.Contains(t, out, report.Run.ID.String())
	assert.Contains(t, out, "total issues: 1")
	assert.Contains(t, out, "LOW: 1")
}
