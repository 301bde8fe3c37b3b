package model

import (
	"slices"
	"strings"
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// RiskReport is a single submitted risk incident. Sequence is the department/month bucket the
// report is counted under when numbering later reports; merge products count under the month
// they were committed in.
type RiskReport struct {
	ID          int64
	RiskID      RiskID
	Department  string
	Description string
	Treatment   string
	Assessments []Assessment
	Inherent    AggregateScore
	Residual    AggregateScore
	Causes      Causes
	Status      types.ReportStatus
	ReporterID  string
	OwnerID     string
	Attachments []Attachment
	Sequence    SequenceKey
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CountedUnder returns the bucket the report adds to. Reports persisted without an explicit
// bucket fall back to the prefix of their identifier.
func (r *RiskReport) CountedUnder() (SequenceKey, bool) {
	if r.Sequence.Validate() == nil {
		return r.Sequence, true
	}
	return r.RiskID.SequenceKey()
}

// PrimaryCategory returns the category of the first assessment
func (r *RiskReport) PrimaryCategory() types.Category {
	if len(r.Assessments) == 0 {
		return ""
	}
	return r.Assessments[0].Category
}

// Categories returns every category in positional order, primary first
func (r *RiskReport) Categories() []types.Category {
	categories := make([]types.Category, len(r.Assessments))
	for i, a := range r.Assessments {
		categories[i] = a.Category
	}
	return categories
}

// IsMergeEligible reports whether the report may be selected as a merge source.
// Consolidated reports and reports produced by a merge are never eligible.
func (r *RiskReport) IsMergeEligible() bool {
	return r.Status != types.ReportStatusConsolidated && !r.RiskID.IsMerged()
}

// ApplyScorecard replaces assessments and aggregates with a scorecard's values
func (r *RiskReport) ApplyScorecard(card *Scorecard) {
	r.Assessments = card.All()
	r.Inherent = card.Inherent
	r.Residual = card.Residual
}

// Copy returns a deep copy of the report
func (r *RiskReport) Copy() *RiskReport {
	copied := *r
	copied.Assessments = slices.Clone(r.Assessments)
	copied.Attachments = slices.Clone(r.Attachments)
	copied.Causes = r.Causes.Copy()
	return &copied
}

// Attachment is a stored document belonging to a report
type Attachment struct {
	ID           int64
	OriginalName string
	StoredPath   string
	Size         int64
	MIMEType     string
	CreatedAt    time.Time
}

// Causes holds the deduplicated cause strings per taxonomy
type Causes map[types.CauseTaxonomy][]string

// NewCauses trims, drops empty entries and deduplicates each taxonomy preserving first occurrence
func NewCauses(raw map[types.CauseTaxonomy][]string) Causes {
	causes := make(Causes)
	for _, taxonomy := range types.AllCauseTaxonomies() {
		seen := make(map[string]bool)
		for _, c := range raw[taxonomy] {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			causes[taxonomy] = append(causes[taxonomy], c)
		}
	}
	return causes
}

// Count returns the number of causes across all taxonomies
func (c Causes) Count() int {
	n := 0
	for _, v := range c {
		n += len(v)
	}
	return n
}

// Copy returns a deep copy
func (c Causes) Copy() Causes {
	if c == nil {
		return nil
	}
	copied := make(Causes, len(c))
	for k, v := range c {
		copied[k] = slices.Clone(v)
	}
	return copied
}

// ReportCommit is everything persisted in one atomic unit by ReportRepository.Commit.
// The counter for Sequence advances inside the transaction; when Report.RiskID is empty the new
// value becomes its sequence number. Every ConsolidateIDs report is marked CONSOLIDATED in the
// same transaction. A non-zero Report.CreatedAt is kept as the commit time.
type ReportCommit struct {
	Report         *RiskReport
	Sequence       SequenceKey
	ConsolidateIDs []int64
}

// IsMerge reports whether the commit consolidates source reports
func (c *ReportCommit) IsMerge() bool {
	return len(c.ConsolidateIDs) > 0
}

// ReportFilter narrows report listings. Zero values do not filter.
type ReportFilter struct {
	PrimaryCategory   types.Category
	Department        string
	Statuses          []types.ReportStatus
	MergeEligibleOnly bool
	ExcludeIDs        []int64
}

// Match reports whether a report passes the filter
func (f *ReportFilter) Match(r *RiskReport) bool {
	if f == nil {
		return true
	}
	if f.PrimaryCategory != "" && r.PrimaryCategory() != f.PrimaryCategory {
		return false
	}
	if f.Department != "" && r.Department != f.Department {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if f.MergeEligibleOnly && !r.IsMergeEligible() {
		return false
	}
	if slices.Contains(f.ExcludeIDs, r.ID) {
		return false
	}
	return true
}

// SortReportsByRecency orders reports most recently reported first, newest id first on ties
func SortReportsByRecency(reports []*RiskReport) {
	slices.SortStableFunc(reports, func(a, b *RiskReport) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})
}
