package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the submission notifier
type Slack struct {
	botToken  string
	channelID string
	baseURL   string
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID, baseURL string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID, baseURL: baseURL}
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token used to post submission notices",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("RISKREG_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID receiving submission notices",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("RISKREG_SLACK_CHANNEL"),
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the application, used for links in notices (e.g., https://risk.example.com)",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("RISKREG_BASE_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channelID),
		slog.String("base-url", x.baseURL),
	)
}

// IsConfigured reports whether notices should be posted
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" || x.channelID != ""
}

// Configure creates the notifier, or nil when Slack is not configured
func (x *Slack) Configure() (interfaces.Notifier, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	if x.botToken == "" || x.channelID == "" {
		return nil, goerr.New("both slack-bot-token and slack-channel are required for notifications")
	}

	notifier, err := slack.New(x.botToken, x.channelID, slack.WithBaseURL(x.baseURL))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create slack notifier")
	}
	return notifier, nil
}
