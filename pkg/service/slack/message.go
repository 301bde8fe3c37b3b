package slack

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxDescriptionBytes keeps the description section well under Slack's 3000 character text limit
const maxDescriptionBytes = 1000

var levelEmoji = map[string]string{
	"LOW":      ":large_green_circle:",
	"MEDIUM":   ":large_yellow_circle:",
	"HIGH":     ":large_orange_circle:",
	"CRITICAL": ":red_circle:",
}

func reportFallbackText(report *model.RiskReport) string {
	if report.RiskID.IsMerged() {
		return fmt.Sprintf("Risks merged into %s (%s)", report.RiskID, report.Inherent.Level)
	}
	return fmt.Sprintf("New risk %s reported (%s)", report.RiskID, report.Inherent.Level)
}

func buildReportBlocks(report *model.RiskReport, baseURL string) []slack.Block {
	title := reportFallbackText(report)
	if baseURL != "" {
		title = fmt.Sprintf("<%s/reports/%d|%s>", strings.TrimRight(baseURL, "/"), report.ID, title)
	}

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Primary category*\n"+report.PrimaryCategory().String(), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Department*\n"+report.Department, false, false),
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Inherent*\n%s %s (%d/%d)", levelEmoji[report.Inherent.Level.String()], report.Inherent.Level, report.Inherent.Total, report.Inherent.MaxPossible),
			false, false),
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Residual*\n%s (%d/%d)", report.Residual.Level, report.Residual.Total, report.Residual.MaxPossible),
			false, false),
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*"+title+"*", false, false), nil, nil),
		slack.NewSectionBlock(nil, fields, nil),
	}

	if report.Description != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.PlainTextType, truncateToMaxBytes(report.Description, maxDescriptionBytes), false, false),
			nil, nil))
	}

	if report.RiskID.IsMerged() {
		segments := report.RiskID.Segments()
		sources := segments[3:]
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, "Consolidated sequences: "+strings.Join(sources, ", "), false, false)))
	}

	return blocks
}

// truncateToMaxBytes cuts s to at most maxBytes bytes on a rune boundary, adding an ellipsis when cut
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}

	const ellipsis = "…"
	cut := maxBytes - len(ellipsis)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
