package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

// All repository interfaces in one file
type (
	// DataPolicyRepository reads a patient's nutrient-source policy.
	DataPolicyRepository interface {
		GetActivePolicy(ctx context.Context, tenantID, patientID uuid.UUID) (*model.PatientDataPolicy, error)
		ListOverrides(ctx context.Context, policyID uuid.UUID) ([]*model.CategoryOverride, error)
	}

	NutrientRepository interface {
		ListForFood(ctx context.Context, tenantID, foodID uuid.UUID, source string) ([]*model.NutrientRow, error)
	}

	// SnapshotRepository persists immutable food snapshots. There is
	// deliberately no update method: a correction means a new snapshot.
	SnapshotRepository interface {
		Create(ctx context.Context, snapshot *model.FoodSnapshot) error
		Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FoodSnapshot, error)
		FindLatest(ctx context.Context, tenantID, patientID, foodID uuid.UUID, source string) (*model.FoodSnapshot, error)
	}

	// CalcAuditRepository is insert-only.
	CalcAuditRepository interface {
		Create(ctx context.Context, record *model.CalcAuditRecord) error
	}

	// AuditEventRepository is the append-only ledger: append and read,
	// nothing else.
	AuditEventRepository interface {
		Append(ctx context.Context, event *model.AuditEvent) error
		List(ctx context.Context, tenantID uuid.UUID, filter *model.AuditEventFilter) ([]*model.AuditEvent, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// IntegrityRepository backs the offline checker. It runs outside the
	// tenant transaction scope and carries explicit tenant filters.
	IntegrityRepository interface {
		CreateRun(ctx context.Context, run *model.IntegrityRun) error
		FinishRun(ctx context.Context, runID uuid.UUID, status model.IntegrityRunStatus, summary *model.IntegritySummary, finishedAt time.Time) error
		AddIssue(ctx context.Context, issue *model.IntegrityIssue) error

		ListNegativeNutrientRows(ctx context.Context, tenantID uuid.UUID) ([]*model.NutrientRow, error)
		ListFoods(ctx context.Context, tenantID uuid.UUID) ([]*model.Food, error)
		ListSnapshotRefs(ctx context.Context, tenantID uuid.UUID) ([]*model.PlanItemSnapshotRef, error)
		GetSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*model.FoodSnapshot, error)
		ListPublishedPlanVersions(ctx context.Context, tenantID uuid.UUID) ([]*model.PlanVersion, error)
		CountAuditableRows(ctx context.Context, tenantID uuid.UUID) (int64, error)
	}
)

// Repositories is the transaction-scoped client handed to the function
// running inside a tenant session. Every repository in it reads and writes
// through the same transaction.
type Repositories struct {
	Policies    DataPolicyRepository
	Nutrients   NutrientRepository
	Snapshots   SnapshotRepository
	CalcAudits  CalcAuditRepository
	AuditEvents AuditEventRepository
	Outbox      OutboxRepository
}

// SessionOptions tune a tenant session.
type SessionOptions struct {
	OwnerMode bool
}

type SessionOption func(*SessionOptions)

// WithOwnerMode marks the session as running with the owner-mode flag set,
// which the storage row policies honor for cross-clinic support access.
func WithOwnerMode() SessionOption {
	return func(o *SessionOptions) {
		o.OwnerMode = true
	}
}

// Sessions opens tenant transaction scopes. Implementations bind the
// claims into transaction-local session state before invoking fn and roll
// the transaction back if fn returns an error.
type Sessions interface {
	WithSession(ctx context.Context, claims model.Claims, fn func(ctx context.Context, r *Repositories) error, opts ...SessionOption) error
}
