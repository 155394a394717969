package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	backendURL  string
	sessionFile string
	logLevel    string
}

// NewRootCmd creates the root command for the authify CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "authify",
		Short: "Authify - client and gateway for the Authify auth backend",
		Long: `authify talks to an Authify authentication backend. It runs the
registration, login, password reset and user management flows from a
terminal, or serves them to browsers as an HTTP gateway (authify serve).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.backendURL, "backend-url", "", "Authify backend base URL (default from AUTHIFY_BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", "", "where the CLI keeps its session (default under the user config dir)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "CLI log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newVerifyAccountCmd(opts))
	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newWhoamiCmd(opts))
	cmd.AddCommand(newPasswordCmd(opts))
	cmd.AddCommand(newAdminCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(cmd.Root().Version)
			return nil
		},
	}
}
