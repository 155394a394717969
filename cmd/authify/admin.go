package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/authify/authify-gateway/internal/core/domain"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage users (ROLE_ADMIN only)",
		Long: `Manage users. The stored session must belong to an admin; the backend
checks the role again on every call.`,
	}

	cmd.AddCommand(newAdminUsersCmd(opts))
	cmd.AddCommand(newAdminShowCmd(opts))
	cmd.AddCommand(newAdminPromoteCmd(opts))

	return cmd
}

type pageFlags struct {
	page, size int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.page, "page", 1, "page to show (1-based)")
	cmd.Flags().IntVar(&p.size, "size", 0, "rows per page (default from ADMIN_PAGE_SIZE)")
}

func newAdminUsersCmd(opts *rootOptions) *cobra.Command {
	var (
		pf    pageFlags
		query string
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users, optionally filtered by name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			svc, err := c.adminService()
			if err != nil {
				return err
			}

			page, err := svc.Search(cmd.Context(), query, pf.page, pf.size)
			if err != nil {
				return err
			}
			return printUserPage(cmd.OutOrStdout(), page)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name or email across all pages")

	return cmd
}

func newAdminShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|email>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			svc, err := c.adminService()
			if err != nil {
				return err
			}

			var u *domain.AdminUser
			if strings.Contains(args[0], "@") {
				u, err = svc.FindByEmail(cmd.Context(), args[0])
			} else {
				u, err = svc.FindByID(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", u.ID)
			fmt.Fprintf(w, "Name\t%s\n", u.Name)
			fmt.Fprintf(w, "Email\t%s\n", u.Email)
			fmt.Fprintf(w, "Verified\t%s\n", yesNo(u.Verified))
			fmt.Fprintf(w, "Role\t%s\n", roleLabel(*u))
			fmt.Fprintf(w, "Created\t%s\n", u.CreatedAt)
			return w.Flush()
		},
	}
}

func newAdminPromoteCmd(opts *rootOptions) *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:   "promote <id>",
		Short: "Grant ROLE_ADMIN and show the refreshed page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			svc, err := c.adminService()
			if err != nil {
				return err
			}

			page, err := svc.Promote(cmd.Context(), args[0], pf.page, pf.size)
			if err != nil {
				return err
			}
			cmd.Printf("Promoted %s to admin.\n", args[0])
			return printUserPage(cmd.OutOrStdout(), page)
		},
	}

	pf.register(cmd)

	return cmd
}

func printUserPage(out io.Writer, page *domain.UserPage) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tVERIFIED\tROLE")
	for _, u := range page.Content {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, yesNo(u.Verified), roleLabel(u))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Page %d of %d\n", page.Page, page.TotalPages); err != nil {
		return err
	}
	if page.Truncated {
		_, err := fmt.Fprintln(out, "Search stopped early; results may be incomplete.")
		return err
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func roleLabel(u domain.AdminUser) string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
