package model

import (
	"math"

	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// MaxSingleRating is the highest rating a single likelihood/impact pair can produce
const MaxSingleRating = types.MaxScale * types.MaxScale

// Rating band lower bounds for a single risk
const (
	criticalRatingFloor = 12
	highRatingFloor     = 8
	mediumRatingFloor   = 4
)

// SingleRating returns likelihood x impact. Inputs must already be validated.
func SingleRating(likelihood types.Likelihood, impact types.Impact) int {
	return int(likelihood) * int(impact)
}

// LevelForRating classifies a single-risk rating. Bands are inclusive at the lower bound.
func LevelForRating(rating int) types.Level {
	switch {
	case rating >= criticalRatingFloor:
		return types.LevelCritical
	case rating >= highRatingFloor:
		return types.LevelHigh
	case rating >= mediumRatingFloor:
		return types.LevelMedium
	default:
		return types.LevelLow
	}
}

// ResidualRating applies a control factor to an inherent rating and rounds to the nearest integer
func ResidualRating(inherent int, controlFactor float64) int {
	return int(math.Round(float64(inherent) * controlFactor))
}

// AggregateScore is the sum of ratings across every scored slot of a report
type AggregateScore struct {
	Total       int         `json:"total"`
	MaxPossible int         `json:"max_possible"`
	Level       types.Level `json:"level"`
}

// Aggregate sums ratings. MaxPossible is MaxSingleRating per rating.
func Aggregate(ratings []int) (total, maxPossible int) {
	for _, r := range ratings {
		total += r
	}
	return total, MaxSingleRating * len(ratings)
}

// AggregateLevel classifies an aggregate total against cut points that scale with maxPossible:
// 3/16, 7/16 and 11/16 of the maximum, floored. A total must exceed a cut to enter the band above it.
func AggregateLevel(total, maxPossible int) types.Level {
	if maxPossible <= 0 {
		return types.LevelLow
	}

	lowCut := maxPossible * 3 / 16
	mediumCut := maxPossible * 7 / 16
	highCut := maxPossible * 11 / 16

	switch {
	case total > highCut:
		return types.LevelCritical
	case total > mediumCut:
		return types.LevelHigh
	case total > lowCut:
		return types.LevelMedium
	default:
		return types.LevelLow
	}
}

// ControlFactorFunc returns the control-effectiveness multiplier for one assessment.
// 1 means controls do not reduce the rating.
type ControlFactorFunc func(a Assessment) float64

// NoControlFactor is the default control model: residual equals inherent
func NoControlFactor(Assessment) float64 {
	return 1
}

// Scorer computes ratings, levels and aggregates. Preview and commit paths share one Scorer.
type Scorer struct {
	controlFactor ControlFactorFunc
}

// ScorerOption configures a Scorer
type ScorerOption func(*Scorer)

// WithControlFactor replaces the control-effectiveness hook
func WithControlFactor(f ControlFactorFunc) ScorerOption {
	return func(s *Scorer) {
		s.controlFactor = f
	}
}

// NewScorer creates a Scorer
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{controlFactor: NoControlFactor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess fills the derived fields of a single assessment. Unscored slots are returned unchanged
// apart from cleared derived fields.
func (s *Scorer) Assess(a Assessment) Assessment {
	a.Rating, a.Level, a.ResidualRating, a.ResidualLevel = 0, "", 0, ""
	if !a.IsScored() {
		return a
	}

	a.Rating = SingleRating(a.Likelihood, a.Impact)
	a.Level = LevelForRating(a.Rating)
	a.ResidualRating = ResidualRating(a.Rating, s.controlFactor(a))
	a.ResidualLevel = LevelForRating(a.ResidualRating)
	return a
}

// Score computes the full scorecard for a primary assessment and its secondary slots
func (s *Scorer) Score(primary Assessment, secondary []Assessment) *Scorecard {
	card := &Scorecard{
		Primary:   s.Assess(primary),
		Secondary: make([]Assessment, len(secondary)),
	}
	for i, a := range secondary {
		card.Secondary[i] = s.Assess(a)
	}

	var inherent, residual []int
	for _, a := range card.All() {
		if !a.IsScored() {
			continue
		}
		inherent = append(inherent, a.Rating)
		residual = append(residual, a.ResidualRating)
	}

	total, maxPossible := Aggregate(inherent)
	card.Inherent = AggregateScore{Total: total, MaxPossible: maxPossible, Level: AggregateLevel(total, maxPossible)}

	total, maxPossible = Aggregate(residual)
	card.Residual = AggregateScore{Total: total, MaxPossible: maxPossible, Level: AggregateLevel(total, maxPossible)}

	return card
}

// Scorecard is the scored form of a report's category slots
type Scorecard struct {
	Primary   Assessment     `json:"primary"`
	Secondary []Assessment   `json:"secondary"`
	Inherent  AggregateScore `json:"inherent"`
	Residual  AggregateScore `json:"residual"`
}

// All returns the primary followed by the secondary assessments
func (c *Scorecard) All() []Assessment {
	all := make([]Assessment, 0, len(c.Secondary)+1)
	all = append(all, c.Primary)
	return append(all, c.Secondary...)
}
