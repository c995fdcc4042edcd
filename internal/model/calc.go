package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CalcType string

const (
	CalcTypeTMB       CalcType = "TMB"
	CalcTypeTDEE      CalcType = "TDEE"
	CalcTypeMealTotal CalcType = "MEAL_TOTAL"
	CalcTypeDayTotal  CalcType = "DAY_TOTAL"
	CalcTypePlanTotal CalcType = "PLAN_TOTAL"
)

func (t CalcType) Valid() bool {
	switch t {
	case CalcTypeTMB, CalcTypeTDEE, CalcTypeMealTotal, CalcTypeDayTotal, CalcTypePlanTotal:
		return true
	}
	return false
}

// CalcAuditRecord captures one calculation's full context: inputs, params,
// output, the rounding policy and units version in effect at compute time.
// Immutable once written, so any historical number can be reproduced after
// the rounding rules or unit conventions change.
type CalcAuditRecord struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	TenantID         uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	PatientID        *uuid.UUID      `json:"patient_id,omitempty" db:"patient_id"`
	CalcType         CalcType        `json:"calc_type" db:"calc_type"`
	Inputs           json.RawMessage `json:"inputs" db:"inputs"`
	Params           json.RawMessage `json:"params" db:"params"`
	Output           json.RawMessage `json:"output" db:"output"`
	RoundingPolicy   json.RawMessage `json:"rounding_policy" db:"rounding_policy"`
	UnitsVersion     string          `json:"units_version" db:"units_version"`
	DatasetReleaseID *string         `json:"dataset_release_id,omitempty" db:"dataset_release_id"`
	CreatedBy        uuid.UUID       `json:"created_by" db:"created_by"`
	OverrideNote     *string         `json:"override_note,omitempty" db:"override_note"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
