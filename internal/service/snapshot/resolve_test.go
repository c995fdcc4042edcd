package snapshot

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/nutrition-api/internal/model"
)

func TestResolveSource(t *testing.T) {
	policy := &model.PatientDataPolicy{
		ID:             uuid.New(),
		AllowedSources: []string{"USDA", "TBCA"},
	}
	overrides := []*model.CategoryOverride{
		{CategoryCode: "dairy", PreferredSource: "TBCA"},
	}

	t.Run("category override wins regardless of policy order", func(t *testing.T) {
		resolution := ResolveSource(policy, overrides, "dairy")
		assert.Equal(t, "TBCA", resolution.Source)
		assert.Equal(t, model.SourceReasonCategoryOverride, resolution.Reason)
	})

	t.Run("no override falls back to first allowed source", func(t *testing.T) {
		resolution := ResolveSource(policy, overrides, "grains")
		assert.Equal(t, "USDA", resolution.Source)
		assert.Equal(t, model.SourceReasonPolicyOrder, resolution.Reason)
	})

	t.Run("empty policy falls back to default", func(t *testing.T) {
		resolution := ResolveSource(&model.PatientDataPolicy{}, nil, "grains")
		assert.Equal(t, DefaultSource, resolution.Source)
		assert.Equal(t, model.SourceReasonDefault, resolution.Reason)
	})

	t.Run("override with empty source is ignored", func(t *testing.T) {
		resolution := ResolveSource(policy, []*model.CategoryOverride{
			{CategoryCode: "dairy", PreferredSource: ""},
		}, "dairy")
		assert.Equal(t, "USDA", resolution.Source)
		assert.Equal(t, model.SourceReasonPolicyOrder, resolution.Reason)
	})
}
