package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/cli/config"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdIssueToken() *cli.Command {
	var authCfg config.Auth
	var user model.User
	var role string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "Subject of the token",
			Required:    true,
			Destination: &user.ID,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Display name of the user",
			Destination: &user.Name,
		},
		&cli.StringFlag{
			Name:        "department",
			Usage:       "Department of the user",
			Destination: &user.Department,
		},
		&cli.StringFlag{
			Name:        "role",
			Usage:       "Role of the user (staff, risk_owner, compliance, admin)",
			Value:       types.RoleStaff.String(),
			Destination: &role,
		},
	}
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:  "issue-token",
		Usage: "Sign a user token for the web form and API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			r, err := types.ParseRole(role)
			if err != nil {
				return goerr.Wrap(err, "invalid role")
			}
			user.Role = r

			authUC, err := authCfg.ConfigureIssuer()
			if err != nil {
				return err
			}

			token, err := authUC.IssueToken(&user)
			if err != nil {
				return goerr.Wrap(err, "failed to issue token")
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			_, _ = fmt.Fprintln(w, token)
			return nil
		},
	}
}
