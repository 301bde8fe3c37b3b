package model

import "github.com/secmon-lab/riskreg/pkg/domain/types"

// Assessment is one category slot of a report with its likelihood/impact pair and derived scores
type Assessment struct {
	Category       types.Category   `json:"category"`
	Likelihood     types.Likelihood `json:"likelihood"`
	Impact         types.Impact     `json:"impact"`
	Rating         int              `json:"rating"`
	Level          types.Level      `json:"level"`
	ResidualRating int              `json:"residual_rating"`
	ResidualLevel  types.Level      `json:"residual_level"`
}

// IsScored reports whether both likelihood and impact are set
func (a Assessment) IsScored() bool {
	return a.Likelihood.IsSet() && a.Impact.IsSet()
}
