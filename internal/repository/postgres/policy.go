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

type dataPolicyRepository struct {
	BaseRepository
}

func (r *dataPolicyRepository) GetActivePolicy(ctx context.Context, tenantID, patientID uuid.UUID) (*model.PatientDataPolicy, error) {
	query := `
        SELECT id, tenant_id, patient_id, allowed_sources, active, created_at, updated_at
        FROM patient_data_policies
        WHERE tenant_id = $1 AND patient_id = $2 AND active = true
    `

	var policy model.PatientDataPolicy
	if err := r.Q().GetContext(ctx, &policy, query, tenantID, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewPrecondition("no active data policy for patient", err)
		}
		return nil, fmt.Errorf("failed to get active data policy: %w", err)
	}

	return &policy, nil
}

func (r *dataPolicyRepository) ListOverrides(ctx context.Context, policyID uuid.UUID) ([]*model.CategoryOverride, error) {
	query := `
        SELECT id, policy_id, category_code, preferred_source
        FROM policy_category_overrides
        WHERE policy_id = $1
    `

	var overrides []*model.CategoryOverride
	if err := r.Q().SelectContext(ctx, &overrides, query, policyID); err != nil {
		return nil, fmt.Errorf("failed to list category overrides: %w", err)
	}

	return overrides, nil
}
