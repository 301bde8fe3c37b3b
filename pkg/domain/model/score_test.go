package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

func TestSingleRatingGrid(t *testing.T) {
	prev := types.LevelLow
	for rating := 1; rating <= model.MaxSingleRating; rating++ {
		level := model.LevelForRating(rating)
		gt.Bool(t, level.Rank() >= prev.Rank()).Describef("rating=%d", rating).True()
		prev = level
	}

	for l := types.MinScale; l <= types.MaxScale; l++ {
		for i := types.MinScale; i <= types.MaxScale; i++ {
			gt.Value(t, model.SingleRating(types.Likelihood(l), types.Impact(i))).Equal(l * i)
		}
	}
}

func TestLevelForRating(t *testing.T) {
	tests := []struct {
		rating int
		want   types.Level
	}{
		{1, types.LevelLow},
		{3, types.LevelLow},
		{4, types.LevelMedium},
		{6, types.LevelMedium},
		{8, types.LevelHigh},
		{9, types.LevelHigh},
		{12, types.LevelCritical},
		{16, types.LevelCritical},
	}

	for _, tt := range tests {
		gt.Value(t, model.LevelForRating(tt.rating)).Describef("rating=%d", tt.rating).Equal(tt.want)
	}
}

func TestResidualRating(t *testing.T) {
	gt.Value(t, model.ResidualRating(12, 1)).Equal(12)
	gt.Value(t, model.ResidualRating(9, 0.5)).Equal(5)
	gt.Value(t, model.ResidualRating(7, 0.5)).Equal(4)
	gt.Value(t, model.ResidualRating(10, 0.25)).Equal(3)
}

func TestAggregate(t *testing.T) {
	total, maxPossible := model.Aggregate([]int{8, 1})
	gt.Value(t, total).Equal(9)
	gt.Value(t, maxPossible).Equal(32)

	total, maxPossible = model.Aggregate(nil)
	gt.Value(t, total).Equal(0)
	gt.Value(t, maxPossible).Equal(0)
}

func TestAggregateLevel(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		maxPossible int
		want        types.Level
	}{
		{"no ratings", 0, 0, types.LevelLow},
		{"negative max", 3, -16, types.LevelLow},
		{"single at low cut", 3, 16, types.LevelLow},
		{"single above low cut", 4, 16, types.LevelMedium},
		{"single at medium cut", 7, 16, types.LevelMedium},
		{"single above medium cut", 8, 16, types.LevelHigh},
		{"single at high cut", 11, 16, types.LevelHigh},
		{"single above high cut", 12, 16, types.LevelCritical},
		{"single maximum", 16, 16, types.LevelCritical},
		{"pair medium", 9, 32, types.LevelMedium},
		{"pair at low cut", 6, 32, types.LevelLow},
		{"pair at high cut", 22, 32, types.LevelHigh},
		{"pair above high cut", 23, 32, types.LevelCritical},
		{"triple floors cuts", 10, 48, types.LevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.AggregateLevel(tt.total, tt.maxPossible)).Equal(tt.want)
		})
	}
}

func TestAggregateLevelScaleInvariant(t *testing.T) {
	for total := 0; total <= model.MaxSingleRating; total++ {
		single := model.AggregateLevel(total, model.MaxSingleRating)
		doubled := model.AggregateLevel(total*2, model.MaxSingleRating*2)
		gt.Value(t, doubled).Describef("total=%d", total).Equal(single)
	}
}

func TestScorer_Score(t *testing.T) {
	t.Run("single critical primary", func(t *testing.T) {
		card := model.NewScorer().Score(model.Assessment{Category: "Fraud", Likelihood: 4, Impact: 4}, nil)

		gt.Value(t, card.Primary.Rating).Equal(16)
		gt.Value(t, card.Primary.Level).Equal(types.LevelCritical)
		gt.Value(t, card.Inherent).Equal(model.AggregateScore{Total: 16, MaxPossible: 16, Level: types.LevelCritical})
		gt.Value(t, card.Residual).Equal(card.Inherent)
	})

	t.Run("primary with one secondary", func(t *testing.T) {
		card := model.NewScorer().Score(
			model.Assessment{Category: "Fraud", Likelihood: 4, Impact: 2},
			[]model.Assessment{{Category: "Cyber", Likelihood: 1, Impact: 1}},
		)

		gt.Value(t, card.Primary.Level).Equal(types.LevelHigh)
		gt.Value(t, card.Secondary[0].Rating).Equal(1)
		gt.Value(t, card.Secondary[0].Level).Equal(types.LevelLow)
		gt.Value(t, card.Inherent).Equal(model.AggregateScore{Total: 9, MaxPossible: 32, Level: types.LevelMedium})
	})

	t.Run("unscored secondary slot is left out of the aggregate", func(t *testing.T) {
		card := model.NewScorer().Score(
			model.Assessment{Category: "Fraud", Likelihood: 2, Impact: 2},
			[]model.Assessment{{Category: "Legal"}},
		)

		gt.Value(t, card.Secondary[0].Rating).Equal(0)
		gt.Value(t, card.Secondary[0].Level).Equal(types.Level(""))
		gt.Value(t, card.Inherent.MaxPossible).Equal(16)
		gt.Array(t, card.All()).Length(2)
	})

	t.Run("control factor feeds residual", func(t *testing.T) {
		scorer := model.NewScorer(model.WithControlFactor(func(model.Assessment) float64 { return 0.5 }))
		card := scorer.Score(model.Assessment{Category: "Fraud", Likelihood: 4, Impact: 4}, nil)

		gt.Value(t, card.Primary.ResidualRating).Equal(8)
		gt.Value(t, card.Primary.ResidualLevel).Equal(types.LevelHigh)
		gt.Value(t, card.Residual).Equal(model.AggregateScore{Total: 8, MaxPossible: 16, Level: types.LevelHigh})
		gt.Value(t, card.Inherent.Level).Equal(types.LevelCritical)
	})

	t.Run("derived fields supplied by the caller are recomputed", func(t *testing.T) {
		card := model.NewScorer().Score(model.Assessment{Category: "Fraud", Likelihood: 1, Impact: 1, Rating: 16, Level: types.LevelCritical}, nil)
		gt.Value(t, card.Primary.Rating).Equal(1)
		gt.Value(t, card.Primary.Level).Equal(types.LevelLow)
	})
}
