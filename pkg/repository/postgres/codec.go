package postgres

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// reportRow is the column-level representation of a risk report.
// categories holds a JSON array with the primary category first. likelihood, impact,
// rating, level and residual are comma-joined in the same positional order. assessments
// is authoritative when present; rows written before it existed are rebuilt from the
// parallel columns.
type reportRow struct {
	ID            int64
	RiskID        string
	SequenceKey   sql.NullString
	Department    string
	Description   string
	Treatment     string
	Categories    string
	Likelihood    string
	Impact        string
	Rating        string
	Level         string
	Residual      string
	Assessments   []byte
	Inherent      []byte
	ResidualScore []byte
	Causes        []byte
	Status        string
	ReporterID    string
	OwnerID       string
}

func encodeReport(r *model.RiskReport) (*reportRow, error) {
	row := &reportRow{
		ID:          r.ID,
		RiskID:      r.RiskID.String(),
		Department:  r.Department,
		Description: r.Description,
		Treatment:   r.Treatment,
		Status:      r.Status.String(),
		ReporterID:  r.ReporterID,
		OwnerID:     r.OwnerID,
	}
	if key, ok := r.CountedUnder(); ok {
		row.SequenceKey = sql.NullString{String: key.String(), Valid: true}
	}

	n := len(r.Assessments)
	categories := make([]string, n)
	likelihood := make([]string, n)
	impact := make([]string, n)
	rating := make([]string, n)
	level := make([]string, n)
	residual := make([]string, n)
	for i, a := range r.Assessments {
		categories[i] = a.Category.String()
		if !a.IsScored() {
			continue
		}
		likelihood[i] = strconv.Itoa(int(a.Likelihood))
		impact[i] = strconv.Itoa(int(a.Impact))
		rating[i] = strconv.Itoa(a.Rating)
		level[i] = a.Level.String()
		residual[i] = strconv.Itoa(a.ResidualRating)
	}

	raw, err := json.Marshal(categories)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode categories")
	}
	row.Categories = string(raw)
	row.Likelihood = strings.Join(likelihood, ",")
	row.Impact = strings.Join(impact, ",")
	row.Rating = strings.Join(rating, ",")
	row.Level = strings.Join(level, ",")
	row.Residual = strings.Join(residual, ",")

	if row.Assessments, err = json.Marshal(r.Assessments); err != nil {
		return nil, goerr.Wrap(err, "failed to encode assessments")
	}
	if row.Inherent, err = json.Marshal(r.Inherent); err != nil {
		return nil, goerr.Wrap(err, "failed to encode inherent score")
	}
	if row.ResidualScore, err = json.Marshal(r.Residual); err != nil {
		return nil, goerr.Wrap(err, "failed to encode residual score")
	}
	causes := r.Causes
	if causes == nil {
		causes = model.Causes{}
	}
	if row.Causes, err = json.Marshal(causes); err != nil {
		return nil, goerr.Wrap(err, "failed to encode causes")
	}

	return row, nil
}

func decodeReport(row *reportRow) (*model.RiskReport, error) {
	r := &model.RiskReport{
		ID:          row.ID,
		RiskID:      model.RiskID(row.RiskID),
		Department:  row.Department,
		Description: row.Description,
		Treatment:   row.Treatment,
		Status:      decodeStatus(row.Status),
		ReporterID:  row.ReporterID,
		OwnerID:     row.OwnerID,
	}
	if row.SequenceKey.Valid {
		r.Sequence, _ = model.ParseSequenceKey(row.SequenceKey.String)
	}

	if isJSONValue(row.Assessments) {
		if err := json.Unmarshal(row.Assessments, &r.Assessments); err != nil {
			return nil, goerr.Wrap(err, "failed to decode assessments", goerr.V("id", row.ID))
		}
	} else {
		assessments, err := decodeLegacyAssessments(row)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode legacy assessments", goerr.V("id", row.ID))
		}
		r.Assessments = assessments
	}

	if isJSONValue(row.Inherent) && isJSONValue(row.ResidualScore) {
		if err := json.Unmarshal(row.Inherent, &r.Inherent); err != nil {
			return nil, goerr.Wrap(err, "failed to decode inherent score", goerr.V("id", row.ID))
		}
		if err := json.Unmarshal(row.ResidualScore, &r.Residual); err != nil {
			return nil, goerr.Wrap(err, "failed to decode residual score", goerr.V("id", row.ID))
		}
	} else {
		r.Inherent, r.Residual = aggregateAssessments(r.Assessments)
	}

	r.Causes = model.Causes{}
	if isJSONValue(row.Causes) {
		if err := json.Unmarshal(row.Causes, &r.Causes); err != nil {
			return nil, goerr.Wrap(err, "failed to decode causes", goerr.V("id", row.ID))
		}
	}

	return r, nil
}

func isJSONValue(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

func decodeLegacyAssessments(row *reportRow) ([]model.Assessment, error) {
	categories, err := decodeCategories(row.Categories)
	if err != nil {
		return nil, err
	}

	likelihood := splitJoined(row.Likelihood)
	impact := splitJoined(row.Impact)
	residual := splitJoined(row.Residual)

	assessments := make([]model.Assessment, len(categories))
	for i, c := range categories {
		a := model.Assessment{Category: types.Category(c)}
		l, err := atoiAt(likelihood, i)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid likelihood", goerr.V("position", i))
		}
		im, err := atoiAt(impact, i)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid impact", goerr.V("position", i))
		}
		a.Likelihood = types.Likelihood(l)
		a.Impact = types.Impact(im)

		if a.IsScored() {
			a.Rating = model.SingleRating(a.Likelihood, a.Impact)
			a.Level = model.LevelForRating(a.Rating)
			a.ResidualRating = a.Rating
			if res, err := atoiAt(residual, i); err == nil && res > 0 {
				a.ResidualRating = res
			}
			a.ResidualLevel = model.LevelForRating(a.ResidualRating)
		}
		assessments[i] = a
	}

	return assessments, nil
}

func aggregateAssessments(assessments []model.Assessment) (inherent, residual model.AggregateScore) {
	var ratings, residuals []int
	for _, a := range assessments {
		if !a.IsScored() {
			continue
		}
		ratings = append(ratings, a.Rating)
		residuals = append(residuals, a.ResidualRating)
	}

	total, maxPossible := model.Aggregate(ratings)
	inherent = model.AggregateScore{Total: total, MaxPossible: maxPossible, Level: model.AggregateLevel(total, maxPossible)}
	total, maxPossible = model.Aggregate(residuals)
	residual = model.AggregateScore{Total: total, MaxPossible: maxPossible, Level: model.AggregateLevel(total, maxPossible)}
	return inherent, residual
}

// decodeCategories parses the categories column. Older rows wrapped the whole list in one
// more level of array encoding, either as a nested array or as a JSON-encoded string element;
// that single level is un-nested. A bare comma-joined string is accepted as a last resort.
func decodeCategories(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.HasPrefix(raw, "[") {
		return splitJoined(raw), nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, goerr.Wrap(err, "categories is not a JSON array", goerr.V("categories", raw))
	}

	if len(elems) == 1 {
		if inner, ok := unnestCategories(elems[0]); ok {
			return inner, nil
		}
	}

	categories := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			return nil, goerr.Wrap(err, "category is not a string", goerr.V("categories", raw))
		}
		categories = append(categories, s)
	}
	return categories, nil
}

func unnestCategories(elem json.RawMessage) ([]string, bool) {
	var nested []string
	if err := json.Unmarshal(elem, &nested); err == nil {
		return nested, true
	}

	var encoded string
	if err := json.Unmarshal(elem, &encoded); err != nil {
		return nil, false
	}
	encoded = strings.TrimSpace(encoded)
	if !strings.HasPrefix(encoded, "[") {
		return nil, false
	}
	if err := json.Unmarshal([]byte(encoded), &nested); err != nil {
		return nil, false
	}
	return nested, true
}

func splitJoined(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func atoiAt(values []string, i int) (int, error) {
	if i >= len(values) || values[i] == "" {
		return 0, nil
	}
	return strconv.Atoi(values[i])
}

// decodeStatus maps stored status labels, including the older display labels, to ReportStatus
func decodeStatus(s string) types.ReportStatus {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	switch normalized {
	case "", "PENDING", "OPEN/PENDING":
		return types.ReportStatusOpen
	case "CANCELED":
		return types.ReportStatusCancelled
	}
	status := types.ReportStatus(normalized)
	if !status.IsValid() {
		return types.ReportStatus(s)
	}
	return status
}
