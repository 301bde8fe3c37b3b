package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/utils/errutil"
)

// maxMatchNameRunes bounds the display name derived from a report description
const maxMatchNameRunes = 80

type MatchUseCase struct {
	repo  interfaces.Repository
	clock func() time.Time
}

func newMatchUseCase(uc *UseCases) *MatchUseCase {
	return &MatchUseCase{repo: uc.repo, clock: uc.clock}
}

// FindForSession runs Find leaving out the reports staged in the session's merge selection.
// Failing to read the selection is a lookup failure like a failed listing.
func (uc *MatchUseCase) FindForSession(ctx context.Context, category types.Category, sessionID string) (*model.MatchResult, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}

	selection, err := activeSelection(ctx, uc.repo, sessionID, uc.clock())
	if err != nil {
		matchLookupsTotal.WithLabelValues(resultError).Inc()
		errutil.Handle(ctx, err, "failed to load merge selection for lookup")
		return nil, goerr.Wrap(ErrLookup, "failed to load merge selection", goerr.V(SessionIDKey, sessionID))
	}

	var exclude []int64
	if selection != nil {
		exclude = selection.ReportIDs
	}
	return uc.Find(ctx, category, exclude)
}

// Find reports whether earlier reports share the primary category. Reports in excludeIDs,
// normally the ones staged for merging, are never returned.
func (uc *MatchUseCase) Find(ctx context.Context, category types.Category, excludeIDs []int64) (*model.MatchResult, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	if category == "" || category.Validate() != nil {
		return nil, newValidationError("category", "category %q is not valid", category)
	}

	reports, err := uc.repo.Report().List(ctx, &model.ReportFilter{
		PrimaryCategory: category,
		ExcludeIDs:      excludeIDs,
	})
	if err != nil {
		matchLookupsTotal.WithLabelValues(resultError).Inc()
		errutil.Handle(ctx, err, "failed to look up existing risks")
		return nil, goerr.Wrap(ErrLookup, "failed to list reports", goerr.V("category", category))
	}

	result := &model.MatchResult{
		Category: category,
		Matches:  make([]model.ReportMatch, 0, len(reports)),
	}
	for _, r := range reports {
		result.Matches = append(result.Matches, model.ReportMatch{
			ID:           r.ID,
			RiskID:       r.RiskID,
			Name:         matchName(r),
			DateReported: r.CreatedAt,
		})
	}
	result.Count = len(result.Matches)
	result.IsNew = result.Count == 0

	if result.IsNew {
		matchLookupsTotal.WithLabelValues(resultNew).Inc()
	} else {
		matchLookupsTotal.WithLabelValues(resultExisting).Inc()
	}

	return result, nil
}

// matchName is the first line of the description, shortened for display
func matchName(r *model.RiskReport) string {
	name, _, _ := strings.Cut(strings.TrimSpace(r.Description), "\n")
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxMatchNameRunes {
		name = string([]rune(name)[:maxMatchNameRunes-1]) + "…"
	}
	if name == "" {
		return r.RiskID.String()
	}
	return name
}
