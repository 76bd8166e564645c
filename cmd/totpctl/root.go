package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/totpguard/pkg/config"
	"github.com/dmitrymomot/totpguard/pkg/logger"
	"github.com/dmitrymomot/totpguard/pkg/totp"
)

// app carries what commands share. Tests replace openBackend and now.
type app struct {
	envFiles    []string
	issuer      string
	openBackend func(ctx context.Context, log *slog.Logger) (*backend, error)
	now         func() time.Time
	logOutput   io.Writer
}

func newApp() *app {
	return &app{
		openBackend: openBackend,
		now:         time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "totpctl",
		Short:         "TOTP secret and enrollment management",
		Long:          `totpctl generates TOTP secrets and codes, and enrolls, verifies and disables users against the secret store selected by TOTP_STORE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(a.envFiles...); err != nil && !errors.Is(err, config.ErrEnvAlreadyLoaded) {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load before reading configuration")
	root.PersistentFlags().StringVar(&a.issuer, "issuer", "", "issuer label, overrides TOTP_ISSUER")

	root.AddCommand(
		newKeygenCmd(),
		newSecretCmd(a),
		newCodeCmd(a),
		newCheckCmd(a),
		newRecoveryCmd(a),
		newCheckRecoveryCmd(),
		newEnrollCmd(a),
		newConfirmCmd(a),
		newLoginCmd(a),
		newStatusCmd(a),
		newSendCodeCmd(a),
		newDisableCmd(a),
		newMigrateCmd(a),
		newPingCmd(a),
	)
	return root
}

// engine builds a TOTP engine from TOTP_* variables.
func (a *app) engine() (*totp.Engine, totp.Config, error) {
	cfg, err := config.Load[totp.Config]()
	if err != nil {
		return nil, cfg, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, cfg, err
	}
	if a.issuer != "" {
		cfg.Issuer = a.issuer
	}
	engine, err := totp.NewEngine(totp.WithParams(params), totp.WithClock(a.now))
	if err != nil {
		return nil, cfg, err
	}
	return engine, cfg, nil
}

func (a *app) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := config.Load[logger.Config]()
	if err != nil {
		return nil, err
	}
	out := a.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	return logger.New(
		logger.WithConfig(cfg),
		logger.WithOutput(out),
		logger.WithAttr(logger.Component("totpctl")),
	), nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
