package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/planboard/internal/auth"
	"github.com/javiermolinar/planboard/internal/client"
	"github.com/javiermolinar/planboard/internal/store"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

func (a *App) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Long: `Create an account in the local store, or on the server with --server.

The password is read from the terminal twice.

Example:
  planboard user add alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := auth.ValidateUsername(args[0])
			if err != nil {
				return err
			}
			password, err := a.newPassword(cmd)
			if err != nil {
				return err
			}

			if err := a.addUser(cmd, username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatSuccess("Created user"), username)
			return nil
		},
	})

	return cmd
}

func (a *App) newPassword(cmd *cobra.Command) (string, error) {
	password, err := a.readPassword(cmd, "Password: ")
	if err != nil {
		return "", err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return "", err
	}
	confirm, err := a.readPassword(cmd, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if confirm != password {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

func (a *App) addUser(cmd *cobra.Command, username, password string) error {
	ctx := cmd.Context()

	if a.config.Server.URL != "" {
		c, err := client.New(a.config.Server.URL)
		if err != nil {
			return err
		}
		if err := c.Register(ctx, username, password); err != nil {
			return fmt.Errorf("registering %s: %w", username, err)
		}
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	st, err := store.Open(a.config.Storage)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	u := store.User{Username: username, Password: hash, CreatedAt: time.Now().UTC()}
	if err := st.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("creating user %s: %w", username, err)
	}
	return nil
}
