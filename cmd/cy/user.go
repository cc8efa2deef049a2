package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/models"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account and session commands",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserLoginCmd())
	cmd.AddCommand(newUserLogoutCmd())
	cmd.AddCommand(newUserWhoamiCmd())
	cmd.AddCommand(newUserRoleCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		configPath string
		creds      auth.Credentials
		role       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, configPath, creds, role)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&creds.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", models.RoleClient, "role: admin, staff or client")
	cmd.MarkFlagRequired("email")
	return cmd
}

func runUserCreate(cmd *cobra.Command, configPath string, creds auth.Credentials, role string) error {
	return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
		if creds.Password == "" {
			pw, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			creds.Password = pw
		}
		p, err := a.auth.CreateUser(cmd.Context(), creds, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s) with role %s\n", p.Email, p.ID, p.Role)
		return nil
	})
}

func newUserLoginCmd() *cobra.Command {
	var (
		configPath string
		email      string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserLogin(cmd, configPath, email, password)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func runUserLogin(cmd *cobra.Command, configPath, email, password string) error {
	return withApp(configPath, func(a *app) error {
		if password == "" {
			pw, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			password = pw
		}
		tok, err := a.auth.SignIn(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		if err := saveToken(tok.Value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s), session valid until %s\n",
			tok.Profile.Email, tok.Profile.Role, tok.ExpiresAt.Local().Format("Jan 2 15:04"))
		return nil
	})
}

func newUserLogoutCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserLogout(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runUserLogout(cmd *cobra.Command, configPath string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	err = withApp(configPath, func(a *app) error {
		// An already expired or revoked token only needs forgetting.
		if err := a.auth.SignOut(cmd.Context(), token); err != nil && !errors.Is(err, auth.ErrUnauthorized) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := clearToken(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func newUserWhoamiCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				p, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) role=%s can_write=%t\n", p.DisplayName(), p.Email, p.Role, auth.CanWrite(p.Role))
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newUserRoleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "role <user-id-or-email> <role>",
		Short: "Change an account's role (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserRole(cmd, configPath, args[0], args[1])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runUserRole(cmd *cobra.Command, configPath, who, role string) error {
	return withWriter(cmd, configPath, func(a *app, actor *models.Profile) error {
		users, err := a.auth.ListUsers(cmd.Context(), actor)
		if err != nil {
			return err
		}
		id := who
		for _, u := range users {
			if strings.EqualFold(u.Email, who) {
				id = u.ID
				break
			}
		}
		p, err := a.auth.UpdateRole(cmd.Context(), actor, id, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", p.Email, p.Role)
		return nil
	})
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runUserList(cmd *cobra.Command, configPath string) error {
	return withWriter(cmd, configPath, func(a *app, actor *models.Profile) error {
		users, err := a.auth.ListUsers(cmd.Context(), actor)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, dash(u.FullName), u.Role)
		}
		return w.Flush()
	})
}
