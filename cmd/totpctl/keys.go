package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/totpguard/pkg/qrcode"
	"github.com/dmitrymomot/totpguard/pkg/totp"
)

var (
	errCodeRejected     = errors.New("code rejected")
	errRecoveryMismatch = errors.New("recovery code does not match")
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a base64 master key for TOTP_ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := totp.GenerateEncodedEncryptionKey()
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", key)
			return nil
		},
	}
}

func newSecretCmd(a *app) *cobra.Command {
	var account, qrPath string
	var qrSize int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a secret and its provisioning URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := a.engine()
			if err != nil {
				return err
			}
			secret, err := engine.GenerateSecret()
			if err != nil {
				return err
			}
			uri, err := engine.ProvisioningURI(secret, account, cfg.Issuer)
			if err != nil {
				return err
			}

			printf(cmd, "secret: %s\nuri:    %s\n", secret, uri)
			if qrPath != "" {
				if err := qrcode.WriteFile(qrPath, uri, qrcode.WithSize(qrSize)); err != nil {
					return err
				}
				printf(cmd, "qr:     %s\n", qrPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account name shown in the authenticator app")
	cmd.Flags().StringVar(&qrPath, "qr", "", "write a PNG QR code of the URI to this path")
	cmd.Flags().IntVar(&qrSize, "qr-size", qrcode.DefaultSize, "QR code size in pixels")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newCodeCmd(a *app) *cobra.Command {
	var secret, at string

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Print the code for a secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := a.engine()
			if err != nil {
				return err
			}
			t := engine.Now()
			if at != "" {
				if t, err = time.Parse(time.RFC3339, at); err != nil {
					return err
				}
			}
			code, err := engine.GenerateAt(secret, t)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", code)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "base32 secret")
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 time to generate the code for (default now)")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var secret, code string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a code against a secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := a.engine()
			if err != nil {
				return err
			}
			ok, err := engine.Verify(secret, code)
			if err != nil {
				return err
			}
			if !ok {
				return errCodeRejected
			}
			printf(cmd, "ok\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "base32 secret")
	cmd.Flags().StringVar(&code, "code", "", "code to check")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newRecoveryCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "recovery",
		Short: "Generate recovery codes and the hashes to store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := a.engine()
			if err != nil {
				return err
			}
			codes, err := engine.GenerateRecoveryCodes(count)
			if err != nil {
				return err
			}
			for _, c := range codes {
				printf(cmd, "%s %s\n", c, totp.HashRecoveryCode(c))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of codes")
	return cmd
}

func newCheckRecoveryCmd() *cobra.Command {
	var code, hash string

	cmd := &cobra.Command{
		Use:   "check-recovery",
		Short: "Check a recovery code against its stored hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !totp.VerifyRecoveryCode(code, hash) {
				return errRecoveryMismatch
			}
			printf(cmd, "ok\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "recovery code as given to the user")
	cmd.Flags().StringVar(&hash, "hash", "", "stored hash printed by the recovery command")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}
