package usecase

import (
	"fmt"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// AssessmentInput is one category slot as entered by the submitter
type AssessmentInput struct {
	Category   types.Category
	Likelihood types.Likelihood
	Impact     types.Impact
}

func (a AssessmentInput) toAssessment() model.Assessment {
	return model.Assessment{
		Category:   a.Category,
		Likelihood: a.Likelihood,
		Impact:     a.Impact,
	}
}

// ScoreInput is the primary slot and the ordered secondary slots of a report
type ScoreInput struct {
	Primary   AssessmentInput
	Secondary []AssessmentInput
}

func (in *ScoreInput) secondaryAssessments() []model.Assessment {
	secondary := make([]model.Assessment, len(in.Secondary))
	for i, s := range in.Secondary {
		secondary[i] = s.toAssessment()
	}
	return secondary
}

// validate checks the slots before scoring. The primary slot must be fully scored;
// a secondary slot needs a category, and any likelihood or impact it carries must be in range.
func (in *ScoreInput) validate(cfg *config.RegisterConfig) error {
	if err := validateCategory(cfg, "primary.category", in.Primary.Category); err != nil {
		return err
	}
	if !in.Primary.Likelihood.IsSet() {
		return newValidationError("primary.likelihood", "likelihood is required")
	}
	if err := in.Primary.Likelihood.Validate(); err != nil {
		return newValidationError("primary.likelihood", "likelihood must be between %d and %d", types.MinScale, types.MaxScale)
	}
	if !in.Primary.Impact.IsSet() {
		return newValidationError("primary.impact", "impact is required")
	}
	if err := in.Primary.Impact.Validate(); err != nil {
		return newValidationError("primary.impact", "impact must be between %d and %d", types.MinScale, types.MaxScale)
	}

	for i, s := range in.Secondary {
		field := fmt.Sprintf("secondary[%d]", i)
		if err := validateCategory(cfg, field+".category", s.Category); err != nil {
			return err
		}
		if s.Likelihood.IsSet() && s.Likelihood.Validate() != nil {
			return newValidationError(field+".likelihood", "likelihood must be between %d and %d", types.MinScale, types.MaxScale)
		}
		if s.Impact.IsSet() && s.Impact.Validate() != nil {
			return newValidationError(field+".impact", "impact must be between %d and %d", types.MinScale, types.MaxScale)
		}
	}

	return nil
}

func validateCategory(cfg *config.RegisterConfig, field string, category types.Category) error {
	if category == "" {
		return newValidationError(field, "category is required")
	}
	if err := category.Validate(); err != nil {
		return newValidationError(field, "category %q is not valid", category)
	}
	if !cfg.HasCategory(category) {
		return newValidationError(field, "unknown category %q", category)
	}
	return nil
}
