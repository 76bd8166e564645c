package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/totpguard/pkg/logger"
	"github.com/dmitrymomot/totpguard/pkg/pg"
	"github.com/dmitrymomot/totpguard/pkg/qrcode"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/pgstore"
	"github.com/dmitrymomot/totpguard/svc/twofactor"
)

// withService runs fn against a freshly built service and closes the
// backend afterwards.
func (a *app) withService(fn func(cmd *cobra.Command, svc twofactor.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, b, err := a.service(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(cmd, svc, args)
	}
}

func newEnrollCmd(a *app) *cobra.Command {
	var qrPath string

	cmd := &cobra.Command{
		Use:   "enroll <user-id>",
		Short: "Start enrollment and print the new secret",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, svc twofactor.Service, args []string) error {
			enr, err := svc.StartEnrollment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd, "secret: %s\nuri:    %s\n", enr.Secret, enr.ProvisioningURI)
			if qrPath != "" {
				if err := qrcode.WriteFile(qrPath, enr.ProvisioningURI); err != nil {
					return err
				}
				printf(cmd, "qr:     %s\n", qrPath)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&qrPath, "qr", "", "write a PNG QR code of the URI to this path")
	return cmd
}

func newConfirmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <user-id> <code>",
		Short: "Confirm a pending enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, svc twofactor.Service, args []string) error {
			if err := svc.ConfirmEnrollment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printf(cmd, "%s\n", twofactor.StateEnrolled)
			return nil
		}),
	}
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <user-id> <code>",
		Short: "Verify a login code for an enrolled user",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, svc twofactor.Service, args []string) error {
			if err := svc.VerifyLogin(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printf(cmd, "%s\n", twofactor.StateVerified)
			return nil
		}),
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <user-id>",
		Short: "Print a user's enrollment state",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, svc twofactor.Service, args []string) error {
			state, err := svc.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", state)
			return nil
		}),
	}
}

func newSendCodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send-code <user-id> <email>",
		Short: "Email the current code to a user",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, svc twofactor.Service, args []string) error {
			if err := svc.SendCode(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printf(cmd, "sent\n")
			return nil
		}),
	}
}

func newDisableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <user-id>",
		Short: "Remove a user's secrets",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, svc twofactor.Service, args []string) error {
			if err := svc.Disable(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "%s\n", twofactor.StateNotEnrolled)
			return nil
		}),
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(cmd)
			if err != nil {
				return err
			}
			b, err := a.openBackend(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer b.Close()

			if b.pool == nil {
				return errNotPostgres
			}
			if err := pgstore.Migrate(cmd.Context(), b.pool, b.pgConfig, log); err != nil {
				return err
			}
			// Site-specific migrations from PG_MIGRATIONS_PATH are tracked in
			// their own table so their versions never interleave with ours.
			if b.pgConfig.MigrationsPath != "" {
				extra := b.pgConfig
				extra.MigrationsTable = extraMigrationsTable(b.pgConfig)
				if err := pg.Migrate(cmd.Context(), b.pool, extra, log); err != nil {
					return err
				}
			}
			printf(cmd, "migrated\n")
			return nil
		},
	}
}

func extraMigrationsTable(cfg pg.Config) string {
	table := cfg.MigrationsTable
	if table == "" {
		table = pg.DefaultMigrationsTable
	}
	return table + "_extra"
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(cmd)
			if err != nil {
				return err
			}
			start := a.now()
			b, err := a.openBackend(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Ping(cmd.Context()); err != nil {
				return err
			}
			log.InfoContext(cmd.Context(), "store reachable", logger.Duration(a.now().Sub(start)))
			printf(cmd, "ok\n")
			return nil
		},
	}
}
