package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PatientDataPolicy holds the ordered list of nutrient sources allowed for
// a patient. Exactly one active policy exists per patient at any time.
type PatientDataPolicy struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	TenantID       uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	PatientID      uuid.UUID      `json:"patient_id" db:"patient_id"`
	AllowedSources pq.StringArray `json:"allowed_sources" db:"allowed_sources"`
	Active         bool           `json:"active" db:"active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// CategoryOverride pins a specific source for one food category,
// taking precedence over the policy's allowed-sources order.
type CategoryOverride struct {
	ID              uuid.UUID `json:"id" db:"id"`
	PolicyID        uuid.UUID `json:"policy_id" db:"policy_id"`
	CategoryCode    string    `json:"category_code" db:"category_code"`
	PreferredSource string    `json:"preferred_source" db:"preferred_source"`
}

// SourceResolutionReason explains how a nutrient source was chosen.
type SourceResolutionReason string

const (
	SourceReasonCategoryOverride SourceResolutionReason = "category_override"
	SourceReasonPolicyOrder      SourceResolutionReason = "policy_order"
	SourceReasonDefault          SourceResolutionReason = "default"
)

// SourceResolution carries the chosen source together with why it was
// chosen, so consumers never have to re-derive the precedence decision.
type SourceResolution struct {
	Source string                 `json:"source"`
	Reason SourceResolutionReason `json:"reason"`
}
