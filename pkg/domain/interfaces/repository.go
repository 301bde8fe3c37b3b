package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Report() ReportRepository
	MergeSelection() MergeSelectionRepository

	Close() error
}
