package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/nutrition-api/internal/config"
	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/internal/service/audit"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
	"github.com/jwalitptl/nutrition-api/pkg/hash"
	"github.com/jwalitptl/nutrition-api/pkg/logger"
	"github.com/jwalitptl/nutrition-api/pkg/metrics"
)

// Service freezes nutrient data into immutable, content-hashed snapshots.
// A snapshot is never updated in place; a correction means a new snapshot
// and re-pointing consumers.
type Service struct {
	sessions    repository.Sessions
	auditor     *audit.Service
	cfg         config.SnapshotConfig
	policyCache *gocache.Cache
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewService(sessions repository.Sessions, auditor *audit.Service, cfg config.SnapshotConfig, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	ttl := cfg.PolicyCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		sessions:    sessions,
		auditor:     auditor,
		cfg:         cfg,
		policyCache: gocache.New(ttl, 2*ttl),
		logger:      logger,
		metrics:     metrics,
	}
}

type resolvedPolicy struct {
	policy    *model.PatientDataPolicy
	overrides []*model.CategoryOverride
}

// CreateFoodSnapshot resolves the nutrient source for the patient and
// category, freezes the nutrient values, and persists the snapshot with
// its content hash inside a tenant session. If no nutrient rows exist for
// the resolved source the operation fails and nothing is persisted.
func (s *Service) CreateFoodSnapshot(ctx context.Context, claims model.Claims, patientID, foodID uuid.UUID, categoryCode string) (*model.FoodSnapshot, error) {
	var snapshot *model.FoodSnapshot
	var created bool

	err := s.sessions.WithSession(ctx, claims, func(ctx context.Context, r *repository.Repositories) error {
		rp, err := s.loadPolicy(ctx, r, claims.TenantID, patientID)
		if err != nil {
			return err
		}

		resolution := ResolveSource(rp.policy, rp.overrides, categoryCode)

		rows, err := r.Nutrients.ListForFood(ctx, claims.TenantID, foodID, resolution.Source)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apperrors.NewPrecondition(
				fmt.Sprintf("no nutrient data for food %s in source %s", foodID, resolution.Source), nil)
		}

		if s.cfg.Dedupe {
			existing, err := r.Snapshots.FindLatest(ctx, claims.TenantID, patientID, foodID, resolution.Source)
			if err != nil {
				return err
			}
			if existing != nil {
				if s.metrics != nil {
					s.metrics.SnapshotsDeduped.Inc()
				}
				snapshot = existing
				return nil
			}
		}

		payload := model.SnapshotPayload{
			Nutrients: make(map[string]float64, len(rows)),
			Source:    resolution.Source,
			Per100g:   true,
		}
		for _, row := range rows {
			payload.Nutrients[row.NutrientKey] = row.Per100g
		}

		// The stored bytes are the canonical form the hash was computed
		// over, so re-verification hashes exactly what is on disk.
		raw, contentHash, err := hash.MarshalCanonical(payload)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot payload: %w", err)
		}

		snapshot = &model.FoodSnapshot{
			ID:               uuid.New(),
			TenantID:         claims.TenantID,
			PatientID:        patientID,
			FoodID:           foodID,
			SnapshotJSON:     raw,
			Source:           resolution.Source,
			SourceReason:     string(resolution.Reason),
			DatasetReleaseID: rows[0].DatasetReleaseID,
			ContentHash:      contentHash,
			CreatedAt:        time.Now(),
		}

		if err := r.Snapshots.Create(ctx, snapshot); err != nil {
			return err
		}
		created = true

		return s.auditor.Log(ctx, r, claims, model.AuditActionSnapshotCreate, model.AuditEntityFoodSnapshot, snapshot.ID, &audit.LogOptions{
			After: map[string]interface{}{
				"patient_id":         patientID,
				"food_id":            foodID,
				"source":             resolution.Source,
				"source_reason":      resolution.Reason,
				"dataset_release_id": snapshot.DatasetReleaseID,
				"content_hash":       contentHash,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if created && s.metrics != nil {
		s.metrics.SnapshotsCreated.Inc()
	}

	return snapshot, nil
}

// loadPolicy fetches the patient's active policy and overrides, fronted by
// a short-TTL cache. The TTL bounds how long a policy change can keep
// resolving against the old source order.
func (s *Service) loadPolicy(ctx context.Context, r *repository.Repositories, tenantID, patientID uuid.UUID) (*resolvedPolicy, error) {
	key := tenantID.String() + ":" + patientID.String()
	if cached, ok := s.policyCache.Get(key); ok {
		return cached.(*resolvedPolicy), nil
	}

	policy, err := r.Policies.GetActivePolicy(ctx, tenantID, patientID)
	if err != nil {
		return nil, err
	}
	overrides, err := r.Policies.ListOverrides(ctx, policy.ID)
	if err != nil {
		return nil, err
	}

	rp := &resolvedPolicy{policy: policy, overrides: overrides}
	s.policyCache.SetDefault(key, rp)
	return rp, nil
}
