package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
)

// snapshotRepository has no UPDATE statement anywhere: snapshots are
// immutable by construction and corrections create new rows.
type snapshotRepository struct {
	BaseRepository
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *model.FoodSnapshot) error {
	query := `
        INSERT INTO food_snapshots (
            id, tenant_id, patient_id, food_id, snapshot_json,
            source, source_reason, dataset_release_id, content_hash, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err := r.Q().ExecContext(ctx, query,
		snapshot.ID,
		snapshot.TenantID,
		snapshot.PatientID,
		snapshot.FoodID,
		snapshot.SnapshotJSON,
		snapshot.Source,
		snapshot.SourceReason,
		snapshot.DatasetReleaseID,
		snapshot.ContentHash,
		snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create food snapshot: %w", err)
	}

	return nil
}

func (r *snapshotRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FoodSnapshot, error) {
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

func (r *snapshotRepository) FindLatest(ctx context.Context, tenantID, patientID, foodID uuid.UUID, source string) (*model.FoodSnapshot, error) {
	query := `
        SELECT id, tenant_id, patient_id, food_id, snapshot_json,
               source, source_reason, dataset_release_id, content_hash, created_at
        FROM food_snapshots
        WHERE tenant_id = $1 AND patient_id = $2 AND food_id = $3 AND source = $4
        ORDER BY created_at DESC
        LIMIT 1
    `

	var snapshot model.FoodSnapshot
	if err := r.Q().GetContext(ctx, &snapshot, query, tenantID, patientID, foodID, source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find existing food snapshot: %w", err)
	}

	return &snapshot, nil
}
