package main

import (
	"github.com/spf13/cobra"

	"github.com/authify/authify-gateway/internal/core/domain"
)

func newPasswordCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset a forgotten password",
		Long: `Reset a forgotten password in three steps:

  authify password forgot --email you@example.com
  authify password verify-otp 123456
  authify password reset`,
	}

	cmd.AddCommand(newPasswordForgotCmd(opts))
	cmd.AddCommand(newPasswordResendCmd(opts))
	cmd.AddCommand(newPasswordVerifyOTPCmd(opts))
	cmd.AddCommand(newPasswordResetCmd(opts))
	cmd.AddCommand(newPasswordStrengthCmd())

	return cmd
}

func newPasswordForgotCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Mail a password reset OTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			if email, err = readValue(cmd, email, "Email"); err != nil {
				return err
			}

			if err := c.resetService().RequestOTP(cmd.Context(), email); err != nil {
				return err
			}

			c.sess.PendingReset = &domain.PendingReset{Email: email}
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("OTP sent to your email.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")

	return cmd
}

func newPasswordResendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resend",
		Short: "Mail another password reset OTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			if c.sess.PendingReset == nil {
				return domain.ErrInvalidAccess
			}

			if err := c.resetService().ResendOTP(cmd.Context(), c.sess.PendingReset.Email); err != nil {
				return err
			}
			cmd.Println("A new OTP has been sent to your email.")
			return nil
		},
	}
}

func newPasswordVerifyOTPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-otp <otp>",
		Short: "Check the password reset OTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			if c.sess.PendingReset == nil {
				return domain.ErrInvalidAccess
			}

			code, err := c.resetService().VerifyOTP(cmd.Context(), c.sess.PendingReset.Email, domain.EntryFromCode(args[0]))
			if err != nil {
				return err
			}

			c.sess.PendingReset.OTP = code
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("OTP verified. Next: authify password reset")
			return nil
		},
	}
}

func newPasswordResetCmd(opts *rootOptions) *cobra.Command {
	var password, confirm string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set the new password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			pending := c.sess.PendingReset
			if pending == nil || pending.OTP == "" {
				return domain.ErrInvalidAccess
			}
			if password, err = readValue(cmd, password, "New password"); err != nil {
				return err
			}
			if confirm, err = readValue(cmd, confirm, "Confirm password"); err != nil {
				return err
			}

			if err := c.resetService().Complete(cmd.Context(), pending.Email, pending.OTP, password, confirm); err != nil {
				return err
			}

			c.sess.PendingReset = nil
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Password reset successfully! Please log in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation (prompted when omitted)")

	return cmd
}

func newPasswordStrengthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strength <password>",
		Short: "Rate a candidate password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := domain.PasswordStrength(args[0])
			cmd.Printf("%s (%d%%)\n", s.Label, s.Percent)
			return nil
		},
	}
}
