package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
)

// integrityRepository backs the offline checker. It runs outside the
// tenant transaction scope, so every query carries an explicit tenant
// filter rather than relying on session state.
type integrityRepository struct {
	BaseRepository
}

func NewIntegrityRepository(q Querier) repository.IntegrityRepository {
	return &integrityRepository{NewBaseRepository(q)}
}

func (r *integrityRepository) CreateRun(ctx context.Context, run *model.IntegrityRun) error {
	query := `
        INSERT INTO integrity_check_runs (
            id, tenant_id, run_type, started_at, status, summary_json
        ) VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := r.Q().ExecContext(ctx, query,
		run.ID,
		run.TenantID,
		run.RunType,
		run.StartedAt,
		run.Status,
		run.SummaryJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create integrity run: %w", err)
	}

	return nil
}

func (r *integrityRepository) FinishRun(ctx context.Context, runID uuid.UUID, status model.IntegrityRunStatus, summary *model.IntegritySummary, finishedAt time.Time) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	query := `
        UPDATE integrity_check_runs
        SET status = $2, summary_json = $3, finished_at = $4
        WHERE id = $1 AND status = 'running'
    `

	result, err := r.Q().ExecContext(ctx, query, runID, status, summaryJSON, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish integrity run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish integrity run: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFound("running integrity run", nil)
	}

	return nil
}

func (r *integrityRepository) AddIssue(ctx context.Context, issue *model.IntegrityIssue) error {
	query := `
        INSERT INTO integrity_issues (
            id, run_id, severity, entity_type, entity_id, details_json, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err := r.Q().ExecContext(ctx, query,
		issue.ID,
		issue.RunID,
		issue.Severity,
		issue.EntityType,
		issue.EntityID,
		issue.DetailsJSON,
		issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add integrity issue: %w", err)
	}

	return nil
}

func (r *integrityRepository) ListNegativeNutrientRows(ctx context.Context, tenantID uuid.UUID) ([]*model.NutrientRow, error) {
	query := `
        SELECT id, tenant_id, food_id, source, nutrient_key, per_100g, dataset_release_id, created_at
        FROM nutrient_rows
        WHERE tenant_id = $1 AND per_100g < 0
    `

	var rows []*model.NutrientRow
	if err := r.Q().SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to scan for negative nutrient rows: %w", err)
	}

	return rows, nil
}

func (r *integrityRepository) ListFoods(ctx context.Context, tenantID uuid.UUID) ([]*model.Food, error) {
	query := `
        SELECT id, tenant_id, name, category_code, energy_kcal, protein_g, carbs_g, fat_g, fiber_g
        FROM foods
        WHERE tenant_id = $1
    `

	var foods []*model.Food
	if err := r.Q().SelectContext(ctx, &foods, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}

	return foods, nil
}

func (r *integrityRepository) ListSnapshotRefs(ctx context.Context, tenantID uuid.UUID) ([]*model.PlanItemSnapshotRef, error) {
	query := `
        SELECT pi.id AS plan_item_id, pi.snapshot_id
        FROM plan_items pi
        WHERE pi.tenant_id = $1 AND pi.snapshot_id IS NOT NULL
    `

	var refs []*model.PlanItemSnapshotRef
	if err := r.Q().SelectContext(ctx, &refs, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list snapshot references: %w", err)
	}

	return refs, nil
}

func (r *integrityRepository) GetSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*model.FoodSnapshot, error) {
	query := `
        SELECT id, tenant_id, patient_id, food_id, snapshot_json,
               source, source_reason, dataset_release_id, content_hash, created_at
        FROM food_snapshots
        WHERE tenant_id = $1 AND id = $2
    `

	var snapshot model.FoodSnapshot
	if err := r.Q().GetContext(ctx, &snapshot, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("food snapshot", err)
		}
		return nil, fmt.Errorf("failed to get food snapshot: %w", err)
	}

	return &snapshot, nil
}

func (r *integrityRepository) ListPublishedPlanVersions(ctx context.Context, tenantID uuid.UUID) ([]*model.PlanVersion, error) {
	query := `
        SELECT id, tenant_id, patient_id, status, updated_at, published_at
        FROM plan_versions
        WHERE tenant_id = $1 AND status = 'published' AND published_at IS NOT NULL
    `

	var versions []*model.PlanVersion
	if err := r.Q().SelectContext(ctx, &versions, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list published plan versions: %w", err)
	}

	return versions, nil
}

func (r *integrityRepository) CountAuditableRows(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `
        SELECT (SELECT COUNT(*) FROM foods WHERE tenant_id = $1)
             + (SELECT COUNT(*) FROM food_snapshots WHERE tenant_id = $1)
             + (SELECT COUNT(*) FROM plan_versions WHERE tenant_id = $1)
    `

	var count int64
	if err := r.Q().GetContext(ctx, &count, query, tenantID); err != nil {
		return 0, fmt.Errorf("failed to count auditable rows: %w", err)
	}

	return count, nil
}
