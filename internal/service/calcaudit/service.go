package calcaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/internal/service/calc"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
	"github.com/jwalitptl/nutrition-api/pkg/metrics"
)

// Service writes calculation audit records. Each record carries a
// serialized copy of the rounding policy and the units version in effect
// at compute time, so any historical number can be reproduced exactly
// after the policy or conventions change.
type Service struct {
	engine  *calc.Engine
	metrics *metrics.Metrics
}

func NewService(engine *calc.Engine, metrics *metrics.Metrics) *Service {
	return &Service{engine: engine, metrics: metrics}
}

type LogRequest struct {
	PatientID        *uuid.UUID
	CalcType         model.CalcType
	Inputs           interface{}
	Params           interface{}
	Output           interface{}
	DatasetReleaseID *string
	OverrideNote     *string
}

func (s *Service) Log(ctx context.Context, r *repository.Repositories, claims model.Claims, req LogRequest) (*model.CalcAuditRecord, error) {
	if !req.CalcType.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("calc type %q", req.CalcType), nil)
	}

	inputs, err := json.Marshal(req.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inputs: %w", err)
	}
	params, err := json.Marshal(req.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	output, err := json.Marshal(req.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	policy, err := json.Marshal(s.engine.Policy())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rounding policy: %w", err)
	}

	record := &model.CalcAuditRecord{
		ID:               uuid.New(),
		TenantID:         claims.TenantID,
		PatientID:        req.PatientID,
		CalcType:         req.CalcType,
		Inputs:           inputs,
		Params:           params,
		Output:           output,
		RoundingPolicy:   policy,
		UnitsVersion:     calc.UnitsVersion,
		DatasetReleaseID: req.DatasetReleaseID,
		CreatedBy:        claims.UserID,
		OverrideNote:     req.OverrideNote,
		CreatedAt:        time.Now(),
	}

	if err := r.CalcAudits.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CalcAuditsWritten.WithLabelValues(string(req.CalcType)).Inc()
	}

	return record, nil
}
