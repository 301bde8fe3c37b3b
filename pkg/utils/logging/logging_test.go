package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
)

func TestFrom(t *testing.T) {
	t.Run("falls back to default", func(t *testing.T) {
		gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
	})

	t.Run("returns logger stored in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		ctx := logging.With(context.Background(), logger)

		logging.From(ctx).Info("stored", "risk_id", "AM/2025/10/1")
		gt.Bool(t, strings.Contains(buf.String(), `"risk_id":"AM/2025/10/1"`)).True()
	})
}
