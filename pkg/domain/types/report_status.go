package types

import "fmt"

// ReportStatus represents the workflow status of a risk report
type ReportStatus string

const (
	ReportStatusOpen         ReportStatus = "OPEN"
	ReportStatusInProgress   ReportStatus = "IN_PROGRESS"
	ReportStatusClosed       ReportStatus = "CLOSED"
	ReportStatusCancelled    ReportStatus = "CANCELLED"
	ReportStatusConsolidated ReportStatus = "CONSOLIDATED"
)

// AllReportStatuses returns all valid report statuses
func AllReportStatuses() []ReportStatus {
	return []ReportStatus{
		ReportStatusOpen,
		ReportStatusInProgress,
		ReportStatusClosed,
		ReportStatusCancelled,
		ReportStatusConsolidated,
	}
}

// IsValid checks if the report status is valid
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusOpen,
		ReportStatusInProgress,
		ReportStatusClosed,
		ReportStatusCancelled,
		ReportStatusConsolidated:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further status change is allowed.
// Only CONSOLIDATED is terminal; closed and cancelled reports can be reopened.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusConsolidated
}

// Normalize returns the status, treating empty as ReportStatusOpen
func (s ReportStatus) Normalize() ReportStatus {
	if s == "" {
		return ReportStatusOpen
	}
	return s
}

// String returns the string representation of the report status
func (s ReportStatus) String() string {
	return string(s)
}

// ParseReportStatus parses a string into a ReportStatus
func ParseReportStatus(s string) (ReportStatus, error) {
	status := ReportStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid report status: %s", s)
	}
	return status, nil
}
