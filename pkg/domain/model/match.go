package model

import (
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// MatchResult tells a submitter whether a primary category starts a new risk chain
type MatchResult struct {
	Category types.Category `json:"category"`
	IsNew    bool           `json:"is_new"`
	Count    int            `json:"count"`
	Matches  []ReportMatch  `json:"matches"`
}

// ReportMatch is a prior report sharing the primary category
type ReportMatch struct {
	ID           int64     `json:"id"`
	RiskID       RiskID    `json:"risk_id"`
	Name         string    `json:"name"`
	DateReported time.Time `json:"date_reported"`
}
