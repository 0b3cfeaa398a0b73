package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/novelhub/readerkit/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Store a bearer token for later commands",
	Long: `Store a bearer token. With the cookie backend the token only lives for
this invocation; set READERKIT_TOKEN_BACKEND=redis to keep it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if current.cfg.TokenBackend == config.TokenBackendCookie {
			log.Printf("cookie token backend does not outlive this process")
		}
		if err := current.svc.Login(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if !current.svc.LoggedIn(cmd.Context()) {
			return fmt.Errorf("login: token is expired")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token and user data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.svc.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}
