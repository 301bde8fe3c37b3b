package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

func TestCategory_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       types.Category
		wantErr bool
	}{
		{"single word", "Fraud", false},
		{"with spaces", "Information Security", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"leading space", " Fraud", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Category.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLikelihood_Validate(t *testing.T) {
	for v := 1; v <= 4; v++ {
		gt.NoError(t, types.Likelihood(v).Validate())
	}
	gt.Error(t, types.Likelihood(0).Validate())
	gt.Error(t, types.Likelihood(5).Validate())
	gt.Error(t, types.Likelihood(-1).Validate())
	gt.B(t, types.Likelihood(0).IsSet()).False()
}

func TestImpact_Validate(t *testing.T) {
	for v := 1; v <= 4; v++ {
		gt.NoError(t, types.Impact(v).Validate())
	}
	gt.Error(t, types.Impact(0).Validate())
	gt.Error(t, types.Impact(5).Validate())
	gt.B(t, types.Impact(3).IsSet()).True()
}

func TestLevel_Rank(t *testing.T) {
	levels := types.AllLevels()
	gt.A(t, levels).Length(4)
	for i, l := range levels {
		gt.N(t, l.Rank()).Equal(i)
	}
	gt.N(t, types.Level("SEVERE").Rank()).Equal(-1)

	parsed, err := types.ParseLevel("HIGH")
	gt.NoError(t, err)
	gt.V(t, parsed).Equal(types.LevelHigh)

	_, err = types.ParseLevel("high")
	gt.Error(t, err)
}

func TestRole_Parse(t *testing.T) {
	r, err := types.ParseRole("risk_owner")
	gt.NoError(t, err)
	gt.V(t, r).Equal(types.RoleRiskOwner)

	_, err = types.ParseRole("owner")
	gt.Error(t, err)
}

func TestCauseTaxonomy(t *testing.T) {
	gt.A(t, types.AllCauseTaxonomies()).Length(4)
	for _, c := range types.AllCauseTaxonomies() {
		gt.B(t, c.IsValid()).True()
	}
	_, err := types.ParseCauseTaxonomy("weather")
	gt.Error(t, err)
}

func TestIntakeStage_IsFinal(t *testing.T) {
	gt.B(t, types.IntakeStageCommitted.IsFinal()).True()
	gt.B(t, types.IntakeStageRolledBack.IsFinal()).True()
	gt.B(t, types.IntakeStageRejected.IsFinal()).True()
	gt.B(t, types.IntakeStageScoring.IsFinal()).False()
}
