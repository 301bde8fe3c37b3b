package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Notifier posts committed risk reports to a Slack channel
type Notifier struct {
	api        *slack.Client
	channelID  string
	baseURL    string
	clientOpts []slack.Option
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*Notifier)

// WithBaseURL sets the application URL used to link reports from messages
func WithBaseURL(url string) Option {
	return func(n *Notifier) {
		n.baseURL = url
	}
}

// WithSlackOptions passes options to the underlying Slack client, e.g. slack.OptionAPIURL
func WithSlackOptions(opts ...slack.Option) Option {
	return func(n *Notifier) {
		n.clientOpts = append(n.clientOpts, opts...)
	}
}

// New creates a Notifier with the provided bot token and channel
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel is required")
	}

	n := &Notifier{
		channelID: channelID,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.api = slack.New(token, n.clientOpts...)

	return n, nil
}

// NotifyReport posts a Block Kit summary of the report
func (n *Notifier) NotifyReport(ctx context.Context, report *model.RiskReport) error {
	blocks := buildReportBlocks(report, n.baseURL)
	text := reportFallbackText(report)

	if _, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	); err != nil {
		return goerr.Wrap(err, "failed to post report notification",
			goerr.V("channel", n.channelID), goerr.V("risk_id", report.RiskID))
	}

	return nil
}
