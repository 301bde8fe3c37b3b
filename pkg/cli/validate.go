package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/cli/config"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.App

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the register configuration file",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if appCfg.Path() == "" {
				return goerr.New("--config is required")
			}

			cfg, err := appCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			causes := 0
			for _, list := range cfg.Causes {
				causes += len(list)
			}

			logger.Info("Configuration validation passed",
				"path", appCfg.Path(),
				"department_count", len(cfg.Departments),
				"category_count", len(cfg.Categories),
				"cause_count", causes,
				"allowed_extensions", cfg.Attachment.AllowedExtensions,
				"max_attachment_size", cfg.Attachment.Limit(),
			)
			for _, d := range cfg.Departments {
				logger.Info("Department validated", "name", d.Name, "initial", d.Initial)
			}
			if len(cfg.Departments) == 0 {
				logger.Warn("No department configured, every submission will be rejected")
			}
			if len(cfg.Categories) == 0 {
				logger.Warn("No category configured, any category name is accepted")
			}

			return nil
		},
	}
}
