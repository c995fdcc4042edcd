package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SnapshotPayload is the typed content frozen into a food snapshot:
// the nutrient map, the resolved source, and the per-100g marker.
type SnapshotPayload struct {
	Nutrients map[string]float64 `json:"nutrients"`
	Source    string             `json:"source"`
	Per100g   bool               `json:"per_100g"`
}

// FoodSnapshot is an immutable point-in-time copy of the nutrient values
// used in a patient plan. SnapshotJSON and ContentHash are never mutated
// after insert; ContentHash is the canonical sha256 of SnapshotJSON and is
// re-verified by the integrity checker.
type FoodSnapshot struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	TenantID         uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	PatientID        uuid.UUID       `json:"patient_id" db:"patient_id"`
	FoodID           uuid.UUID       `json:"food_id" db:"food_id"`
	SnapshotJSON     json.RawMessage `json:"snapshot_json" db:"snapshot_json"`
	Source           string          `json:"source" db:"source"`
	SourceReason     string          `json:"source_reason" db:"source_reason"`
	DatasetReleaseID string          `json:"dataset_release_id" db:"dataset_release_id"`
	ContentHash      string          `json:"content_hash" db:"content_hash"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// Payload decodes the stored snapshot JSON.
func (s *FoodSnapshot) Payload() (*SnapshotPayload, error) {
	var p SnapshotPayload
	if err := json.Unmarshal(s.SnapshotJSON, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
