package calc

import "math"

// QuantityKind identifies what a number measures, which decides how it is
// rounded. The rounding policy table is the single source of truth for
// precision: every derived value in the engine goes through Round.
type QuantityKind string

const (
	KindEnergy        QuantityKind = "energy"
	KindProtein       QuantityKind = "protein"
	KindCarbs         QuantityKind = "carbs"
	KindFat           QuantityKind = "fat"
	KindFiber         QuantityKind = "fiber"
	KindMicronutrient QuantityKind = "micronutrient"
	KindPercent       QuantityKind = "percent"
)

// UnitsVersion tags the unit conventions in effect. It is stamped into
// every calc audit record; changing unit conventions is a code change that
// bumps this constant.
const UnitsVersion = "v1"

// RoundingPolicy is the versioned precision table. A serialized copy is
// persisted with every audited calculation so historical results stay
// reproducible after the table changes.
type RoundingPolicy struct {
	Version  string               `json:"version"`
	Decimals map[QuantityKind]int `json:"decimals"`
}

// DefaultRoundingPolicy returns the active policy table.
func DefaultRoundingPolicy() RoundingPolicy {
	return RoundingPolicy{
		Version: "v1",
		Decimals: map[QuantityKind]int{
			KindEnergy:        0,
			KindProtein:       1,
			KindCarbs:         1,
			KindFat:           1,
			KindFiber:         1,
			KindMicronutrient: 2,
			KindPercent:       1,
		},
	}
}

// Round rounds value to the policy's precision for kind. An unknown kind
// rounds to 2 decimals rather than silently truncating to integers.
func (p RoundingPolicy) Round(kind QuantityKind, value float64) float64 {
	decimals, ok := p.Decimals[kind]
	if !ok {
		decimals = 2
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
