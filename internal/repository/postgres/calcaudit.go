package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

// calcAuditRepository is insert-only; records are immutable once written.
type calcAuditRepository struct {
	BaseRepository
}

func (r *calcAuditRepository) Create(ctx context.Context, record *model.CalcAuditRecord) error {
	query := `
        INSERT INTO calc_audit_records (
            id, tenant_id, patient_id, calc_type, inputs, params, output,
            rounding_policy, units_version, dataset_release_id,
            created_by, override_note, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `

	_, err := r.Q().ExecContext(ctx, query,
		record.ID,
		record.TenantID,
		record.PatientID,
		record.CalcType,
		record.Inputs,
		record.Params,
		record.Output,
		record.RoundingPolicy,
		record.UnitsVersion,
		record.DatasetReleaseID,
		record.CreatedBy,
		record.OverrideNote,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create calc audit record: %w", err)
	}

	return nil
}
