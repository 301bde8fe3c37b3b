package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/cli/config"
	httpctrl "github.com/secmon-lab/riskreg/pkg/controller/http"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var maxRequestSize int64
	var secureCookie bool
	var appCfg config.App
	var repoCfg config.Repository
	var storageCfg config.Storage
	var authCfg config.Auth
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RISKREG_ADDR"),
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "max-request-size",
			Usage:       "Upper bound in bytes of a submission request including every attachment",
			Value:       httpctrl.DefaultMaxRequestSize,
			Sources:     cli.EnvVars("RISKREG_MAX_REQUEST_SIZE"),
			Destination: &maxRequestSize,
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Always mark cookies Secure (set when TLS is terminated by a proxy)",
			Sources:     cli.EnvVars("RISKREG_SECURE_COOKIE"),
			Destination: &secureCookie,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			registerCfg, err := appCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load register configuration")
			}
			if len(registerCfg.Departments) == 0 {
				logging.Default().Warn("No department configured, every submission will be rejected")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			store, closeStorage, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize attachment storage")
			}
			defer closeStorage()

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logging.Default().Warn("Running in no-auth mode (development only)", "auth", authCfg)
			}

			ucOpts := []usecase.Option{
				usecase.WithRegisterConfig(registerCfg),
				usecase.WithStorage(store),
				usecase.WithAuth(authUC),
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack notifier")
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notification enabled", "slack", slackCfg)
			} else {
				logging.Default().Info("Slack not configured, submissions are not announced")
			}

			uc := usecase.New(repo, ucOpts...)

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(uc,
					httpctrl.WithMaxRequestSize(maxRequestSize),
					httpctrl.WithSecureCookie(secureCookie),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"repository", repoCfg,
					"storage", storageCfg,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Let pending notifications finish before the notifier goes away
				if err := uc.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("notifications still pending at shutdown", "error", err)
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
