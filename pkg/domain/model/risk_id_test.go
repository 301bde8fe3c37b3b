package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
)

func TestNextRiskID(t *testing.T) {
	gt.Value(t, model.NextRiskID("AM", 2025, 10, 5)).Equal(model.RiskID("AM/2025/10/5"))
	gt.Value(t, model.NextRiskID("FIN", 2024, 1, 12)).Equal(model.RiskID("FIN/2024/01/12"))

	for n := 1; n <= 200; n++ {
		id := model.NextRiskID("AM", 2025, 10, n)
		gt.Array(t, id.Segments()).Length(4)
		gt.Bool(t, id.IsMerged()).False()
	}
}

func TestMergedRiskID(t *testing.T) {
	t.Run("two sources", func(t *testing.T) {
		merged, err := model.MergedRiskID([]model.RiskID{"AM/2025/10/5", "AM/2025/10/9"})
		gt.NoError(t, err).Required()
		gt.Value(t, merged).Equal(model.RiskID("AM/2025/10/5/9"))

		segments := strings.Split(merged.String(), "/")
		gt.Value(t, segments[len(segments)-2:]).Equal([]string{"5", "9"})
		gt.Bool(t, merged.IsMerged()).True()
	})

	t.Run("prefix comes from the first source", func(t *testing.T) {
		merged, err := model.MergedRiskID([]model.RiskID{"FIN/2024/12/3", "AM/2025/10/9", "AM/2025/11/1"})
		gt.NoError(t, err).Required()
		gt.Value(t, merged).Equal(model.RiskID("FIN/2024/12/3/9/1"))
	})

	t.Run("output always has more segments than a fresh identifier", func(t *testing.T) {
		for n := 1; n <= 50; n++ {
			merged, err := model.MergedRiskID([]model.RiskID{
				model.NextRiskID("AM", 2025, 10, n),
				model.NextRiskID("AM", 2025, 10, n+1),
			})
			gt.NoError(t, err).Required()
			gt.Bool(t, len(merged.Segments()) >= 5).True()
		}
	})

	t.Run("source with too few segments", func(t *testing.T) {
		_, err := model.MergedRiskID([]model.RiskID{"AM/2025/10/5", "AM/2025/10"})
		gt.Bool(t, errors.Is(err, model.ErrMalformedRiskID)).True()
	})

	t.Run("source with empty segment", func(t *testing.T) {
		_, err := model.MergedRiskID([]model.RiskID{"AM/2025//5", "AM/2025/10/9"})
		gt.Bool(t, errors.Is(err, model.ErrMalformedRiskID)).True()
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := model.MergedRiskID(nil)
		gt.Bool(t, errors.Is(err, model.ErrMalformedRiskID)).True()
	})
}

func TestRiskID_SequenceKey(t *testing.T) {
	key, ok := model.RiskID("AM/2025/10/5").SequenceKey()
	gt.Bool(t, ok).True()
	gt.Value(t, key).Equal(model.SequenceKey{DepartmentInitial: "AM", Year: 2025, Month: 10})
	gt.Value(t, key.String()).Equal("AM_2025_10")

	key, ok = model.RiskID("AM/2025/10/5/9").SequenceKey()
	gt.Bool(t, ok).True()
	gt.Value(t, key).Equal(model.SequenceKey{DepartmentInitial: "AM", Year: 2025, Month: 10})

	_, ok = model.RiskID("AM/2025/10").SequenceKey()
	gt.Bool(t, ok).False()

	_, ok = model.RiskID("AM/20x5/10/5").SequenceKey()
	gt.Bool(t, ok).False()
}

func TestParseSequenceKey(t *testing.T) {
	key, ok := model.ParseSequenceKey("AM_2025_10")
	gt.Bool(t, ok).True()
	gt.Value(t, key).Equal(model.SequenceKey{DepartmentInitial: "AM", Year: 2025, Month: 10})

	for _, s := range []string{"", "AM_2025", "AM_2025_13", "A-M_2025_10", "AM_20x5_10"} {
		_, ok := model.ParseSequenceKey(s)
		gt.Bool(t, ok).False()
	}
}

func TestSequenceKey_Validate(t *testing.T) {
	gt.NoError(t, model.SequenceKey{DepartmentInitial: "AM", Year: 2025, Month: 10}.Validate())
	gt.Error(t, model.SequenceKey{DepartmentInitial: "", Year: 2025, Month: 10}.Validate())
	gt.Error(t, model.SequenceKey{DepartmentInitial: "A/M", Year: 2025, Month: 10}.Validate())
	gt.Error(t, model.SequenceKey{DepartmentInitial: "AM", Year: 25, Month: 10}.Validate())
	gt.Error(t, model.SequenceKey{DepartmentInitial: "AM", Year: 2025, Month: 13}.Validate())
}
