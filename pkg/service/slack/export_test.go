package slack

// Export internal functions for testing
var (
	BuildReportBlocks  = buildReportBlocks
	ReportFallbackText = reportFallbackText
	TruncateToMaxBytes = truncateToMaxBytes
)
