package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/library"
	"github.com/jonathan/resume-studio/internal/types"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Long:  "Sign in with email and password. Missing values are prompted for; the password is read without echo.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reader := bufio.NewReader(a.in)

			var err error
			if email == "" {
				if email, err = promptLine(reader, a.errOut, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(a.in, reader, a.errOut); err != nil {
					return err
				}
			}

			if err := a.connect(ctx); err != nil {
				return err
			}
			user, err := a.gate.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			a.printf("Logged in as %s\n", user.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req types.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if req.Password == "" {
				pw, err := promptPassword(a.in, bufio.NewReader(a.in), a.errOut)
				if err != nil {
					return err
				}
				req.Password = pw
			}

			if err := a.connect(ctx); err != nil {
				return err
			}
			user, err := a.gate.Register(ctx, req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			a.printf("Welcome, %s\n", user.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			if err := a.gate.Logout(ctx); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and how many resumes it has",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := a.restore(ctx)
			if err != nil {
				return err
			}
			if user == nil {
				a.printf("Not logged in\n")
				return nil
			}

			list, err := library.New(a.client, a.gate, a.logger.Logger).Refresh(ctx)
			if err != nil {
				return err
			}

			a.printer.PrintUser(user)
			a.printf("%d saved resumes\n", len(list))
			return nil
		},
	}
}
