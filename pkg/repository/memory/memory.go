package memory

import (
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	report         *reportRepository
	mergeSelection *mergeSelectionRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		report:         newReportRepository(),
		mergeSelection: newMergeSelectionRepository(),
	}
}

func (m *Memory) Report() interfaces.ReportRepository {
	return m.report
}

func (m *Memory) MergeSelection() interfaces.MergeSelectionRepository {
	return m.mergeSelection
}

func (m *Memory) Close() error {
	return nil
}
