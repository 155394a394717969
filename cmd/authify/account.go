package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/authify/authify-gateway/internal/core/domain"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var draft domain.RegistrationDraft

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; the backend mails a verification OTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			if draft.Password, err = readValue(cmd, draft.Password, "Password"); err != nil {
				return err
			}
			if draft.ConfirmPassword, err = readValue(cmd, draft.ConfirmPassword, "Confirm password"); err != nil {
				return err
			}

			if err := c.registrationService().Register(cmd.Context(), draft); err != nil {
				return err
			}

			c.sess.PendingVerification = draft.Email
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Registration successful! Please check your email for the OTP.")
			cmd.Println("Next: authify verify-account <otp>")
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Name, "name", "", "full name")
	cmd.Flags().StringVar(&draft.Email, "email", "", "email address")
	cmd.Flags().StringVar(&draft.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&draft.ConfirmPassword, "confirm", "", "password confirmation (prompted when omitted)")

	return cmd
}

func newVerifyAccountCmd(opts *rootOptions) *cobra.Command {
	var (
		email  string
		resend bool
	)

	cmd := &cobra.Command{
		Use:   "verify-account [otp]",
		Short: "Verify the account with the emailed OTP",
		Long: `Verify the account with the 6-digit OTP from the registration email.
The email defaults to the one used by the last register. With --resend a new
OTP is requested instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			if email == "" {
				email = c.sess.PendingVerification
			}
			svc := c.registrationService()

			if resend {
				if err := svc.ResendVerification(cmd.Context(), email); err != nil {
					return err
				}
				cmd.Println("A new OTP has been sent to your email.")
				return nil
			}

			if len(args) == 0 {
				return domain.ErrIncompleteOTP
			}
			if err := svc.Verify(cmd.Context(), email, domain.EntryFromCode(args[0])); err != nil {
				return err
			}

			c.sess.PendingVerification = ""
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Account verified successfully! Please log in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (default: the last registered one)")
	cmd.Flags().BoolVar(&resend, "resend", false, "request a new OTP instead of verifying")

	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			if email, err = readValue(cmd, email, "Email"); err != nil {
				return err
			}
			if password, err = readValue(cmd, password, "Password"); err != nil {
				return err
			}

			svc := c.sessionService()
			res, err := svc.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			c.sess.State = svc.State()
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Logged in as %s <%s>\n", res.User.Name, res.User.Email)
			cmd.Printf("Dashboard: %s\n", res.Destination)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the backend session and forget the stored one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}

			res := c.sessionService().Logout(cmd.Context())
			if err := c.forget(cmd.Context()); err != nil {
				return err
			}
			if res.Err != nil {
				cmd.PrintErrln("Logout failed on the server. You have been logged out locally.")
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}

			// A stored user is re-checked against the backend. Without one,
			// a leftover backend session may still be picked up.
			svc := c.sessionService()
			var profileErr error
			if c.sess.State.LoggedIn() {
				_, profileErr = svc.Profile(cmd.Context())
			} else {
				svc.Restore(cmd.Context())
			}

			c.sess.State = svc.State()
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			if profileErr != nil {
				return profileErr
			}
			if !c.sess.State.LoggedIn() {
				return domain.ErrUnauthenticated
			}

			u := c.sess.State.User
			cmd.Printf("%s  %s <%s>\n", u.Initials(), u.Name, u.Email)
			cmd.Printf("Roles: %s\n", strings.Join(u.Roles.List(), ", "))
			return nil
		},
	}
}
