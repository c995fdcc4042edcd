package calcaudit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository"
	"github.com/jwalitptl/nutrition-api/internal/service/calc"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
)

type fakeCalcAuditRepo struct {
	created []*model.CalcAuditRecord
}

func (f *fakeCalcAuditRepo) Create(ctx context.Context, record *model.CalcAuditRecord) error {
	f.created = append(f.created, record)
	return nil
}

func testClaims() model.Claims {
	return model.Claims{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     model.RoleTeam,
	}
}

func TestLogCapturesCalculationContext(t *testing.T) {
	repo := &fakeCalcAuditRepo{}
	repos := &repository.Repositories{CalcAudits: repo}
	claims := testClaims()
	patientID := uuid.New()
	releaseID := "taco-2026-02"

	svc := NewService(calc.NewEngine(), nil)
	record, err := svc.Log(context.Background(), repos, claims, LogRequest{
		PatientID: &patientID,
		CalcType:  model.CalcTypeTMB,
		Inputs: calc.TMBInput{
			WeightKg: 80,
			HeightCm: 175,
			AgeYears: 30,
			Sex:      calc.SexMale,
		},
		Params:           map[string]string{"formula": "mifflin_st_jeor"},
		Output:           map[string]float64{"tmb_kcal": 1749},
		DatasetReleaseID: &releaseID,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Same(t, repo.created[0], record)

	assert.Equal(t, claims.TenantID, record.TenantID)
	assert.Equal(t, claims.UserID, record.CreatedBy)
	require.NotNil(t, record.PatientID)
	assert.Equal(t, patientID, *record.PatientID)
	assert.Equal(t, model.CalcTypeTMB, record.CalcType)
	require.NotNil(t, record.DatasetReleaseID)
	assert.Equal(t, releaseID, *record.DatasetReleaseID)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	var inputs calc.TMBInput
	require.NoError(t, json.Unmarshal(record.Inputs, &inputs))
	assert.Equal(t, 80.0, inputs.WeightKg)
}

func TestLogSerializesRoundingPolicyAndUnits(t *testing.T) {
	repo := &fakeCalcAuditRepo{}
	repos := &repository.Repositories{CalcAudits: repo}

	svc := NewService(calc.NewEngine(), nil)
	record, err := svc.Log(context.Background(), repos, testClaims(), LogRequest{
		CalcType: model.CalcTypeTDEE,
		Inputs:   map[string]interface{}{"tmb_kcal": 1749, "activity_level": "moderate"},
		Output:   map[string]float64{"tdee_kcal": 2711},
	})
	require.NoError(t, err)

	assert.Equal(t, calc.UnitsVersion, record.UnitsVersion)

	// The stored policy must round-trip to the policy in effect, so the
	// output can be reproduced digit-for-digit later.
	var stored calc.RoundingPolicy
	require.NoError(t, json.Unmarshal(record.RoundingPolicy, &stored))
	assert.Equal(t, calc.DefaultRoundingPolicy(), stored)
}

func TestLogRejectsUnknownCalcType(t *testing.T) {
	repo := &fakeCalcAuditRepo{}
	repos := &repository.Repositories{CalcAudits: repo}

	svc := NewService(calc.NewEngine(), nil)
	_, err := svc.Log(context.Background(), repos, testClaims(), LogRequest{
		CalcType: model.CalcType("BODY_FAT"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
	assert.Empty(t, repo.created)
}

func TestLogOverrideNotePreserved(t *testing.T) {
	repo := &fakeCalcAuditRepo{}
	repos := &repository.Repositories{CalcAudits: repo}
	note := "clinician confirmed intake below guardrail floor"

	svc := NewService(calc.NewEngine(), nil)
	record, err := svc.Log(context.Background(), repos, testClaims(), LogRequest{
		CalcType:     model.CalcTypeDayTotal,
		Output:       map[string]float64{"energy_kcal": 1100},
		OverrideNote: &note,
	})
	require.NoError(t, err)
	require.NotNil(t, record.OverrideNote)
	assert.Equal(t, note, *record.OverrideNote)
}
