package calc

// Nutrients is the macro profile the engine scales and aggregates.
// Values are absolute amounts unless a caller says otherwise.
type Nutrients struct {
	EnergyKcal float64 `json:"energy_kcal"`
	ProteinG   float64 `json:"protein_g"`
	CarbsG     float64 `json:"carbs_g"`
	FatG       float64 `json:"fat_g"`
	FiberG     float64 `json:"fiber_g"`
}

type CoverageStatus string

const (
	CoverageOK      CoverageStatus = "ok"
	CoveragePartial CoverageStatus = "partial"
	CoverageMissing CoverageStatus = "missing"
)

// Coverage reports how close actual intake is to target, per macro and
// overall.
type Coverage struct {
	EnergyPct  float64        `json:"energy_pct"`
	ProteinPct float64        `json:"protein_pct"`
	CarbsPct   float64        `json:"carbs_pct"`
	FatPct     float64        `json:"fat_pct"`
	MeanPct    float64        `json:"mean_pct"`
	Status     CoverageStatus `json:"status"`
}

// ScaleNutrients converts per-100g values to the given portion size.
func (e *Engine) ScaleNutrients(per100g Nutrients, grams float64) Nutrients {
	factor := grams / 100
	return Nutrients{
		EnergyKcal: e.policy.Round(KindEnergy, per100g.EnergyKcal*factor),
		ProteinG:   e.policy.Round(KindProtein, per100g.ProteinG*factor),
		CarbsG:     e.policy.Round(KindCarbs, per100g.CarbsG*factor),
		FatG:       e.policy.Round(KindFat, per100g.FatG*factor),
		FiberG:     e.policy.Round(KindFiber, per100g.FiberG*factor),
	}
}

// SumNutrients aggregates item totals, rounding the result per policy.
func (e *Engine) SumNutrients(items []Nutrients) Nutrients {
	var total Nutrients
	for _, item := range items {
		total.EnergyKcal += item.EnergyKcal
		total.ProteinG += item.ProteinG
		total.CarbsG += item.CarbsG
		total.FatG += item.FatG
		total.FiberG += item.FiberG
	}

	return Nutrients{
		EnergyKcal: e.policy.Round(KindEnergy, total.EnergyKcal),
		ProteinG:   e.policy.Round(KindProtein, total.ProteinG),
		CarbsG:     e.policy.Round(KindCarbs, total.CarbsG),
		FatG:       e.policy.Round(KindFat, total.FatG),
		FiberG:     e.policy.Round(KindFiber, total.FiberG),
	}
}

// CalculateCoverage derives per-macro percentage-of-target values and the
// overall status from their mean: >=90 ok, >=70 partial, else missing.
// Fiber contributes to totals but not to coverage status.
func (e *Engine) CalculateCoverage(actual, target Nutrients) Coverage {
	energy := coveragePct(actual.EnergyKcal, target.EnergyKcal)
	protein := coveragePct(actual.ProteinG, target.ProteinG)
	carbs := coveragePct(actual.CarbsG, target.CarbsG)
	fat := coveragePct(actual.FatG, target.FatG)

	mean := (energy + protein + carbs + fat) / 4

	status := CoverageMissing
	switch {
	case mean >= 90:
		status = CoverageOK
	case mean >= 70:
		status = CoveragePartial
	}

	return Coverage{
		EnergyPct:  e.policy.Round(KindPercent, energy),
		ProteinPct: e.policy.Round(KindPercent, protein),
		CarbsPct:   e.policy.Round(KindPercent, carbs),
		FatPct:     e.policy.Round(KindPercent, fat),
		MeanPct:    e.policy.Round(KindPercent, mean),
		Status:     status,
	}
}

func coveragePct(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return actual / target * 100
}
