package integrity

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/service/calc"
	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
	"github.com/jwalitptl/nutrition-api/pkg/hash"
)

// canary is a fixed, known-answer computation. A mismatch means the
// calculation engine itself has regressed, which is always CRITICAL.
type canary struct {
	name      string
	expected  float64
	tolerance float64
	compute   func(e *calc.Engine) (float64, error)
}

var canaries = []canary{
	{
		name:      "tmb_male_reference",
		expected:  1749,
		tolerance: 1,
		compute: func(e *calc.Engine) (float64, error) {
			return e.CalculateTMB(calc.TMBInput{WeightKg: 80, HeightCm: 175, AgeYears: 30, Sex: calc.SexMale})
		},
	},
	{
		name:      "tmb_female_reference",
		expected:  1345,
		tolerance: 1,
		compute: func(e *calc.Engine) (float64, error) {
			return e.CalculateTMB(calc.TMBInput{WeightKg: 60, HeightCm: 165, AgeYears: 25, Sex: calc.SexFemale})
		},
	},
	{
		name:      "tdee_moderate_reference",
		expected:  2711,
		tolerance: 1,
		compute: func(e *calc.Engine) (float64, error) {
			return e.CalculateTDEE(1749, calc.ActivityModerate)
		},
	},
}

func (c *Checker) checkCanaries(ctx context.Context, tenantID uuid.UUID) ([]*model.IntegrityIssue, error) {
	var issues []*model.IntegrityIssue

	for _, cn := range canaries {
		got, err := cn.compute(c.engine)
		if err != nil || math.Abs(got-cn.expected) > cn.tolerance {
			details := model.JSONMap{
				"canary":   cn.name,
				"expected": cn.expected,
				"got":      got,
			}
			if err != nil {
				details["error"] = err.Error()
			}
			issues = append(issues, &model.IntegrityIssue{
				Severity:    model.SeverityCritical,
				EntityType:  "calculation_engine",
				DetailsJSON: issueDetails(details),
			})
		}
	}

	return issues, nil
}

// macroEnergyTolerance is the accepted relative gap between a food's
// declared energy and the energy implied by its macros (4/4/9 kcal per g).
const macroEnergyTolerance = 0.10

func (c *Checker) checkDatasetSanity(ctx context.Context, tenantID uuid.UUID) ([]*model.IntegrityIssue, error) {
	var issues []*model.IntegrityIssue

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	negatives, err := c.repo.ListNegativeNutrientRows(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, row := range negatives {
		rowID := row.ID
		issues = append(issues, &model.IntegrityIssue{
			Severity:   model.SeverityHigh,
			EntityType: "nutrient_row",
			EntityID:   &rowID,
			DetailsJSON: issueDetails(model.JSONMap{
				"food_id":      row.FoodID,
				"source":       row.Source,
				"nutrient_key": row.NutrientKey,
				"per_100g":     row.Per100g,
			}),
		})
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	foods, err := c.repo.ListFoods(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, food := range foods {
		calculated := food.ProteinG*4 + food.CarbsG*4 + food.FatG*9
		diff := math.Abs(food.EnergyKcal - calculated)
		if diff > macroEnergyTolerance*food.EnergyKcal {
			foodID := food.ID
			issues = append(issues, &model.IntegrityIssue{
				Severity:   model.SeverityMedium,
				EntityType: "food",
				EntityID:   &foodID,
				DetailsJSON: issueDetails(model.JSONMap{
					"name":            food.Name,
					"energy_kcal":     food.EnergyKcal,
					"calculated_kcal": calculated,
					"diff_kcal":       diff,
				}),
			})
		}
	}

	return issues, nil
}

func (c *Checker) checkSnapshots(ctx context.Context, tenantID uuid.UUID) ([]*model.IntegrityIssue, error) {
	refs, err := c.repo.ListSnapshotRefs(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var issues []*model.IntegrityIssue
	for _, ref := range refs {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		snapshot, err := c.repo.GetSnapshot(ctx, tenantID, ref.SnapshotID)
		if err != nil {
			if apperrors.IsCode(err, apperrors.ErrNotFound) {
				snapshotID := ref.SnapshotID
				issues = append(issues, &model.IntegrityIssue{
					Severity:   model.SeverityCritical,
					EntityType: "food_snapshot",
					EntityID:   &snapshotID,
					DetailsJSON: issueDetails(model.JSONMap{
						"plan_item_id": ref.PlanItemID,
						"problem":      "referenced snapshot does not exist",
					}),
				})
				continue
			}
			return nil, err
		}

		recomputed, err := hash.ContentHash(snapshot.SnapshotJSON)
		if err != nil || recomputed != snapshot.ContentHash {
			snapshotID := snapshot.ID
			details := model.JSONMap{
				"stored_hash":     snapshot.ContentHash,
				"recomputed_hash": recomputed,
			}
			if err != nil {
				details["error"] = err.Error()
			}
			issues = append(issues, &model.IntegrityIssue{
				Severity:    model.SeverityCritical,
				EntityType:  "food_snapshot",
				EntityID:    &snapshotID,
				DetailsJSON: issueDetails(details),
			})
		}
	}

	return issues, nil
}

func (c *Checker) checkImmutability(ctx context.Context, tenantID uuid.UUID) ([]*model.IntegrityIssue, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	versions, err := c.repo.ListPublishedPlanVersions(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var issues []*model.IntegrityIssue
	for _, version := range versions {
		if version.PublishedAt == nil {
			continue
		}
		if version.UpdatedAt.After(*version.PublishedAt) {
			versionID := version.ID
			issues = append(issues, &model.IntegrityIssue{
				Severity:   model.SeverityCritical,
				EntityType: "plan_version",
				EntityID:   &versionID,
				DetailsJSON: issueDetails(model.JSONMap{
					"updated_at":   version.UpdatedAt,
					"published_at": *version.PublishedAt,
					"problem":      "published plan version modified after publication",
				}),
			})
		}
	}

	return issues, nil
}

// checkAccessControl is a minimal runtime signal; deep authorization
// correctness lives in a separate test suite.
func (c *Checker) checkAccessControl(ctx context.Context, tenantID uuid.UUID) ([]*model.IntegrityIssue, error) {
	count, err := c.repo.CountAuditableRows(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return []*model.IntegrityIssue{{
			Severity:   model.SeverityLow,
			EntityType: "tenant",
			DetailsJSON: issueDetails(model.JSONMap{
				"problem": "tenant has no data to validate against",
			}),
		}}, nil
	}

	return nil, nil
}
