package calc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundingPolicyPrecision(t *testing.T) {
	policy := DefaultRoundingPolicy()

	assert.Equal(t, 1749.0, policy.Round(KindEnergy, 1748.75))
	assert.Equal(t, 12.3, policy.Round(KindProtein, 12.349))
	assert.Equal(t, 0.47, policy.Round(KindMicronutrient, 0.4651))
	assert.Equal(t, 87.5, policy.Round(KindPercent, 87.456))
}

func TestRoundingPolicyUnknownKind(t *testing.T) {
	policy := DefaultRoundingPolicy()

	// Unknown kinds round to 2 decimals instead of collapsing to integers.
	assert.Equal(t, 1.23, policy.Round("sodium_mg_per_serving", 1.2345))
}

func TestRoundingPolicySerializationRoundTrip(t *testing.T) {
	policy := DefaultRoundingPolicy()

	raw, err := json.Marshal(policy)
	require.NoError(t, err)

	var restored RoundingPolicy
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.Equal(t, policy.Version, restored.Version)
	assert.Equal(t, policy.Decimals, restored.Decimals)
}
