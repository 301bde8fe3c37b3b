package model

import (
	"slices"
	"time"
)

// DefaultMergeSelectionTTL is how long a staged merge selection survives between page loads
const DefaultMergeSelectionTTL = 30 * time.Minute

// MergeSelection is the set of reports a session is currently merging
type MergeSelection struct {
	SessionID string
	ReportIDs []int64
	RiskIDs   []RiskID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the selection is past its expiry
func (s *MergeSelection) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Contains reports whether the report id is part of the selection
func (s *MergeSelection) Contains(id int64) bool {
	return slices.Contains(s.ReportIDs, id)
}

// Copy returns a deep copy of the selection
func (s *MergeSelection) Copy() *MergeSelection {
	copied := *s
	copied.ReportIDs = slices.Clone(s.ReportIDs)
	copied.RiskIDs = slices.Clone(s.RiskIDs)
	return &copied
}
