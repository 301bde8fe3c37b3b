package interfaces

import (
	"context"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
)

// Notifier announces committed reports to an external channel
type Notifier interface {
	NotifyReport(ctx context.Context, report *model.RiskReport) error
}
