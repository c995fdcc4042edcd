package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

type nutrientRepository struct {
	BaseRepository
}

func (r *nutrientRepository) ListForFood(ctx context.Context, tenantID, foodID uuid.UUID, source string) ([]*model.NutrientRow, error) {
	query := `
        SELECT id, tenant_id, food_id, source, nutrient_key, per_100g, dataset_release_id, created_at
        FROM nutrient_rows
        WHERE tenant_id = $1 AND food_id = $2 AND source = $3
        ORDER BY nutrient_key
    `

	var rows []*model.NutrientRow
	if err := r.Q().SelectContext(ctx, &rows, query, tenantID, foodID, source); err != nil {
		return nil, fmt.Errorf("failed to list nutrient rows: %w", err)
	}

	return rows, nil
}
