package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/cli/config"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/repository/memory"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/urfave/cli/v3"
)

var levelColors = map[types.Level]*color.Color{
	types.LevelLow:      color.New(color.FgGreen),
	types.LevelMedium:   color.New(color.FgYellow),
	types.LevelHigh:     color.New(color.FgRed),
	types.LevelCritical: color.New(color.FgHiRed, color.Bold),
}

func cmdScore() *cli.Command {
	var appCfg config.App
	var category string
	var likelihood, impact int64
	var secondary []string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Usage:       "Primary risk category",
			Required:    true,
			Destination: &category,
		},
		&cli.Int64Flag{
			Name:        "likelihood",
			Aliases:     []string{"l"},
			Usage:       "Likelihood of the primary risk (1-4)",
			Required:    true,
			Destination: &likelihood,
		},
		&cli.Int64Flag{
			Name:        "impact",
			Aliases:     []string{"i"},
			Usage:       "Impact of the primary risk (1-4)",
			Required:    true,
			Destination: &impact,
		},
		&cli.StringSliceFlag{
			Name:        "secondary",
			Usage:       "Secondary risk as CATEGORY:LIKELIHOOD:IMPACT, repeatable. Omit the numbers for an unscored slot",
			Destination: &secondary,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "score",
		Usage: "Compute the scorecard of a risk classification without submitting it",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load register configuration")
			}

			input := &usecase.ScoreInput{
				Primary: usecase.AssessmentInput{
					Category:   types.Category(category),
					Likelihood: types.Likelihood(likelihood),
					Impact:     types.Impact(impact),
				},
			}
			for _, s := range secondary {
				a, err := parseAssessment(s)
				if err != nil {
					return err
				}
				input.Secondary = append(input.Secondary, a)
			}

			uc := usecase.New(memory.New(), usecase.WithRegisterConfig(cfg))
			ctx = auth.ContextWithUser(ctx, auth.NewAnonymousUser("cli", "", types.RoleAdmin))

			card, err := uc.Intake.Preview(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "failed to score")
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			printScorecard(w, card)
			return nil
		},
	}
}

// parseAssessment reads CATEGORY[:LIKELIHOOD:IMPACT]. The category itself may contain colons.
func parseAssessment(s string) (usecase.AssessmentInput, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return usecase.AssessmentInput{Category: types.Category(strings.TrimSpace(s))}, nil
	}

	n := len(parts)
	l, errL := strconv.Atoi(strings.TrimSpace(parts[n-2]))
	i, errI := strconv.Atoi(strings.TrimSpace(parts[n-1]))
	if errL != nil || errI != nil {
		return usecase.AssessmentInput{}, goerr.New("secondary must be CATEGORY:LIKELIHOOD:IMPACT", goerr.V("secondary", s))
	}

	return usecase.AssessmentInput{
		Category:   types.Category(strings.TrimSpace(strings.Join(parts[:n-2], ":"))),
		Likelihood: types.Likelihood(l),
		Impact:     types.Impact(i),
	}, nil
}

func levelString(level types.Level) string {
	if level == "" {
		return "-"
	}
	if c, ok := levelColors[level]; ok {
		return c.Sprint(level)
	}
	return level.String()
}

func printAssessment(w io.Writer, label string, a model.Assessment) {
	if !a.IsScored() {
		_, _ = fmt.Fprintf(w, "%-10s %-24s unscored\n", label, a.Category)
		return
	}
	_, _ = fmt.Fprintf(w, "%-10s %-24s L%d x I%d = %2d %s  residual %2d %s\n",
		label, a.Category, a.Likelihood, a.Impact,
		a.Rating, levelString(a.Level),
		a.ResidualRating, levelString(a.ResidualLevel))
}

func printScorecard(w io.Writer, card *model.Scorecard) {
	bold := color.New(color.Bold)

	printAssessment(w, "primary", card.Primary)
	for i, a := range card.Secondary {
		printAssessment(w, fmt.Sprintf("secondary%d", i+1), a)
	}

	_, _ = bold.Fprintf(w, "inherent   %d/%d ", card.Inherent.Total, card.Inherent.MaxPossible)
	_, _ = fmt.Fprintln(w, levelString(card.Inherent.Level))
	_, _ = bold.Fprintf(w, "residual   %d/%d ", card.Residual.Total, card.Residual.MaxPossible)
	_, _ = fmt.Fprintln(w, levelString(card.Residual.Level))
}
