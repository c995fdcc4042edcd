package calc

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/nutrition-api/pkg/errors"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type ActivityLevel string

const (
	ActivitySedentary   ActivityLevel = "sedentary"
	ActivityLight       ActivityLevel = "light"
	ActivityModerate    ActivityLevel = "moderate"
	ActivityVeryActive  ActivityLevel = "very_active"
	ActivityExtraActive ActivityLevel = "extra_active"
)

// activityFactors is fixed clinical input, not configuration.
var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary:   1.2,
	ActivityLight:       1.375,
	ActivityModerate:    1.55,
	ActivityVeryActive:  1.725,
	ActivityExtraActive: 1.9,
}

type Goal string

const (
	GoalMaintain Goal = "maintain"
	GoalLoss     Goal = "loss"
	GoalGain     Goal = "gain"
)

// Default goal adjustments and the ranges a caller-supplied adjustment
// must stay within. Out-of-range targets are rejected, never clamped:
// they are a clinical-safety concern, not a UX nuance.
const (
	defaultLossAdjustment = -0.15
	defaultGainAdjustment = 0.10

	lossAdjustmentMin = -0.25
	lossAdjustmentMax = -0.05
	gainAdjustmentMin = 0.05
	gainAdjustmentMax = 0.20
)

// Sex-specific calorie floors. Targets below the floor require a
// documented clinical justification.
const (
	calorieFloorFemale = 1200
	calorieFloorMale   = 1500
)

var (
	ErrAdjustmentOutOfRange = errors.New("goal adjustment outside allowed range")
	ErrBelowCalorieFloor    = errors.New("calorie target below safety floor")
	ErrUnknownActivityLevel = errors.New("unknown activity level")
	ErrUnknownGoal          = errors.New("unknown goal")
)

// TMBInput holds the anthropometrics for a basal metabolic rate
// calculation.
type TMBInput struct {
	WeightKg float64 `json:"weight_kg" validate:"required,gt=0,lte=500"`
	HeightCm float64 `json:"height_cm" validate:"required,gt=0,lte=300"`
	AgeYears int     `json:"age_years" validate:"required,gte=1,lte=130"`
	Sex      Sex     `json:"sex" validate:"required,oneof=male female"`
}

// Engine computes energy targets and nutrient aggregates. All outputs are
// rounded per the engine's rounding policy.
type Engine struct {
	policy   RoundingPolicy
	validate *validator.Validate
}

func NewEngine() *Engine {
	return &Engine{
		policy:   DefaultRoundingPolicy(),
		validate: validator.New(),
	}
}

// Policy returns the rounding policy in effect, for audit serialization.
func (e *Engine) Policy() RoundingPolicy {
	return e.policy
}

// CalculateTMB computes the basal metabolic rate with the
// Mifflin-St Jeor formula.
func (e *Engine) CalculateTMB(input TMBInput) (float64, error) {
	if err := e.validate.Struct(input); err != nil {
		return 0, apperrors.NewValidation("invalid TMB input", err)
	}

	base := 10*input.WeightKg + 6.25*input.HeightCm - 5*float64(input.AgeYears)
	if input.Sex == SexMale {
		base += 5
	} else {
		base -= 161
	}

	return e.policy.Round(KindEnergy, base), nil
}

// CalculateTDEE multiplies a basal rate by the fixed activity factor.
func (e *Engine) CalculateTDEE(tmb float64, level ActivityLevel) (float64, error) {
	factor, ok := activityFactors[level]
	if !ok {
		return 0, apperrors.NewValidation(fmt.Sprintf("activity level %q", level), ErrUnknownActivityLevel)
	}

	return e.policy.Round(KindEnergy, tmb*factor), nil
}

// ApplyGoalAdjustment adjusts a TDEE for the patient's goal. A custom
// adjustment overrides the default but must lie within the allowed range
// for the goal; violations are rejected.
func (e *Engine) ApplyGoalAdjustment(tdee float64, goal Goal, custom *float64) (float64, error) {
	var adjustment float64

	switch goal {
	case GoalMaintain:
		if custom != nil && *custom != 0 {
			return 0, apperrors.NewValidation("maintain goal accepts no adjustment", ErrAdjustmentOutOfRange)
		}
	case GoalLoss:
		adjustment = defaultLossAdjustment
		if custom != nil {
			if *custom < lossAdjustmentMin || *custom > lossAdjustmentMax {
				return 0, apperrors.NewValidation(
					fmt.Sprintf("loss adjustment %.2f outside [%.2f, %.2f]", *custom, lossAdjustmentMin, lossAdjustmentMax),
					ErrAdjustmentOutOfRange,
				)
			}
			adjustment = *custom
		}
	case GoalGain:
		adjustment = defaultGainAdjustment
		if custom != nil {
			if *custom < gainAdjustmentMin || *custom > gainAdjustmentMax {
				return 0, apperrors.NewValidation(
					fmt.Sprintf("gain adjustment %.2f outside [%.2f, %.2f]", *custom, gainAdjustmentMin, gainAdjustmentMax),
					ErrAdjustmentOutOfRange,
				)
			}
			adjustment = *custom
		}
	default:
		return 0, apperrors.NewValidation(fmt.Sprintf("goal %q", goal), ErrUnknownGoal)
	}

	return e.policy.Round(KindEnergy, tdee*(1+adjustment)), nil
}

// EnforceGuardrails rejects calorie targets below the sex-specific floor
// unless an explicit override note documents the clinical justification.
// The value is returned unchanged; the guardrail forces acknowledgment,
// it never adjusts.
func (e *Engine) EnforceGuardrails(kcalTarget float64, sex Sex, overrideNote string) (float64, error) {
	floor := float64(calorieFloorMale)
	if sex == SexFemale {
		floor = calorieFloorFemale
	}

	if kcalTarget < floor && overrideNote == "" {
		return 0, apperrors.NewGuardrail(
			fmt.Sprintf("target %.0f kcal below %.0f kcal floor requires an override note", kcalTarget, floor),
			ErrBelowCalorieFloor,
		)
	}

	return kcalTarget, nil
}
