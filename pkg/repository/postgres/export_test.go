package postgres

import "github.com/secmon-lab/riskreg/pkg/domain/model"

// DecodeCategoriesForTest exposes decodeCategories for testing
func DecodeCategoriesForTest(raw string) ([]string, error) {
	return decodeCategories(raw)
}

// LegacyRowForTest holds the parallel columns of a row written before the assessments column existed
type LegacyRowForTest struct {
	Categories string
	Likelihood string
	Impact     string
	Residual   string
	Status     string
}

// DecodeLegacyRowForTest decodes a row that has only the parallel columns
func DecodeLegacyRowForTest(in LegacyRowForTest) (*model.RiskReport, error) {
	return decodeReport(&reportRow{
		RiskID:     "AM/2025/10/1",
		Categories: in.Categories,
		Likelihood: in.Likelihood,
		Impact:     in.Impact,
		Residual:   in.Residual,
		Status:     in.Status,
	})
}

// RoundTripForTest encodes and decodes a report through the column representation
func RoundTripForTest(r *model.RiskReport) (*model.RiskReport, *reportRow, error) {
	row, err := encodeReport(r)
	if err != nil {
		return nil, nil, err
	}
	decoded, err := decodeReport(row)
	return decoded, row, err
}

// ParallelColumnsForTest returns the comma-joined columns of an encoded row
func ParallelColumnsForTest(row *reportRow) (categories, likelihood, impact, rating, level string) {
	return row.Categories, row.Likelihood, row.Impact, row.Rating, row.Level
}
