package model

import (
	"time"

	"github.com/google/uuid"
)

// NutrientRow is one per-100g nutrient value for a food in a given source
// dataset, scoped to a tenant.
type NutrientRow struct {
	ID               uuid.UUID `json:"id" db:"id"`
	TenantID         uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FoodID           uuid.UUID `json:"food_id" db:"food_id"`
	Source           string    `json:"source" db:"source"`
	NutrientKey      string    `json:"nutrient_key" db:"nutrient_key"`
	Per100g          float64   `json:"per_100g" db:"per_100g"`
	DatasetReleaseID string    `json:"dataset_release_id" db:"dataset_release_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Food is a canonical food with its declared macros, used by the dataset
// sanity stage of the integrity checker.
type Food struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name         string    `json:"name" db:"name"`
	CategoryCode string    `json:"category_code" db:"category_code"`
	EnergyKcal   float64   `json:"energy_kcal" db:"energy_kcal"`
	ProteinG     float64   `json:"protein_g" db:"protein_g"`
	CarbsG       float64   `json:"carbs_g" db:"carbs_g"`
	FatG         float64   `json:"fat_g" db:"fat_g"`
	FiberG       float64   `json:"fiber_g" db:"fiber_g"`
}

// PlanVersion is the slice of a patient plan version the integrity checker
// needs for the immutability stage: published versions must not have been
// touched after publication.
type PlanVersion struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	PatientID   uuid.UUID  `json:"patient_id" db:"patient_id"`
	Status      string     `json:"status" db:"status"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// PlanItemSnapshotRef links a plan item to the snapshot it was computed
// from. The integrity checker walks these references.
type PlanItemSnapshotRef struct {
	PlanItemID uuid.UUID `json:"plan_item_id" db:"plan_item_id"`
	SnapshotID uuid.UUID `json:"snapshot_id" db:"snapshot_id"`
}
