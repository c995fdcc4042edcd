package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate         AuditAction = "CREATE"
	AuditActionUpdate         AuditAction = "UPDATE"
	AuditActionDeleteSoft     AuditAction = "DELETE_SOFT"
	AuditActionApprove        AuditAction = "APPROVE"
	AuditActionPublish        AuditAction = "PUBLISH"
	AuditActionArchive        AuditAction = "ARCHIVE"
	AuditActionPolicyChange   AuditAction = "POLICY_CHANGE"
	AuditActionSnapshotCreate AuditAction = "SNAPSHOT_CREATE"
	AuditActionDatasetPublish AuditAction = "DATASET_PUBLISH"
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionSupportAccess  AuditAction = "SUPPORT_ACCESS"
)

const (
	AuditEntityFoodSnapshot = "food_snapshot"
	AuditEntityDataPolicy   = "patient_data_policy"
	AuditEntityPlanVersion  = "plan_version"
	AuditEntityDataset      = "dataset_release"
	AuditEntityPatient      = "patient"
)

// AuditEvent is one entry in the append-only ledger of privileged actions.
// The repository exposes no update or delete for it.
type AuditEvent struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	TenantID    uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	ActorUserID uuid.UUID        `json:"actor_user_id" db:"actor_user_id"`
	ActorRole   Role             `json:"actor_role" db:"actor_role"`
	Action      AuditAction      `json:"action" db:"action"`
	EntityType  string           `json:"entity_type" db:"entity_type"`
	EntityID    uuid.UUID        `json:"entity_id" db:"entity_id"`
	BeforeJSON  *json.RawMessage `json:"before_json,omitempty" db:"before_json"`
	AfterJSON   *json.RawMessage `json:"after_json,omitempty" db:"after_json"`
	Reason      *string          `json:"reason,omitempty" db:"reason"`
	RequestID   string           `json:"request_id" db:"request_id"`
	IPHash      *string          `json:"ip_hash,omitempty" db:"ip_hash"`
	UserAgent   *string          `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// AuditEventFilter narrows ledger reads.
type AuditEventFilter struct {
	ActorUserID *uuid.UUID
	Action      *AuditAction
	EntityType  *string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}
