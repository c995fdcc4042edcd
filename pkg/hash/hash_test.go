package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashRoundTrip(t *testing.T) {
	payload := map[string]interface{}{
		"nutrients": map[string]float64{"energy_kcal": 250, "protein_g": 10.5},
		"source":    "TACO",
		"per_100g":  true,
	}

	raw, contentHash, err := MarshalCanonical(payload)
	require.NoError(t, err)

	recomputed, err := ContentHash(raw)
	require.NoError(t, err)
	assert.Equal(t, contentHash, recomputed)
}

func TestContentHashIgnoresKeyOrderAndWhitespace(t *testing.T) {
	a := []byte(`{"source":"TACO","per_100g":true,"nutrients":{"protein_g":10.5,"energy_kcal":250}}`)
	b := []byte(`{
		"nutrients": {"energy_kcal": 250, "protein_g": 10.5},
		"per_100g": true,
		"source": "TACO"
	}`)

	hashA, err := ContentHash(a)
	require.NoError(t, err)
	hashB, err := ContentHash(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestContentHashDetectsMutation(t *testing.T) {
	original := []byte(`{"nutrients":{"energy_kcal":250},"per_100g":true,"source":"TACO"}`)
	tampered := []byte(`{"nutrients":{"energy_kcal":251},"per_100g":true,"source":"TACO"}`)

	hashOriginal, err := ContentHash(original)
	require.NoError(t, err)
	hashTampered, err := ContentHash(tampered)
	require.NoError(t, err)
	assert.NotEqual(t, hashOriginal, hashTampered)
}

func TestContentHashRejectsInvalidJSON(t *testing.T) {
	_, err := ContentHash([]byte(`{"broken":`))
	assert.Error(t, err)
}
