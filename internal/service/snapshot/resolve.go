package snapshot

import (
	"github.com/jwalitptl/nutrition-api/internal/model"
)

// DefaultSource is used when neither a category override nor the policy's
// allowed-sources list yields a source.
const DefaultSource = "TACO"

// ResolveSource picks the nutrient source for a food category.
// Precedence: category override, then the first entry of the policy's
// allowed-sources list, then the hard-coded default. The reason for the
// choice is part of the result so consumers never re-derive it.
func ResolveSource(policy *model.PatientDataPolicy, overrides []*model.CategoryOverride, categoryCode string) model.SourceResolution {
	for _, override := range overrides {
		if override.CategoryCode == categoryCode && override.PreferredSource != "" {
			return model.SourceResolution{
				Source: override.PreferredSource,
				Reason: model.SourceReasonCategoryOverride,
			}
		}
	}

	if policy != nil && len(policy.AllowedSources) > 0 {
		return model.SourceResolution{
			Source: policy.AllowedSources[0],
			Reason: model.SourceReasonPolicyOrder,
		}
	}

	return model.SourceResolution{
		Source: DefaultSource,
		Reason: model.SourceReasonDefault,
	}
}
