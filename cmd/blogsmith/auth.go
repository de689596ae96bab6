package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssohn/blogsmith/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Verify cached notebook service credentials",
	Long: `Auth loads the cached session credentials and reports their state.
Credentials are browser session cookies captured by a prior interactive
login; blogsmith never performs the login itself. Use --check to also
issue a test request against the service.`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().Bool("check", false, "issue a test request against the service")

	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg := clientConfig(cmd)
	tokens, err := auth.LoadTokens(cfg.TokensPath)
	if err != nil {
		return err
	}

	fmt.Printf("Credentials loaded: %d cookie(s)\n", len(tokens.Cookies))
	if tokens.CSRFToken != "" {
		fmt.Println("CSRF token: present")
	}
	switch {
	case tokens.ExpiresAt.IsZero():
		fmt.Println("Expiry: unknown")
	case tokens.Expired():
		return fmt.Errorf("credentials expired at %s: log in with the web client again", tokens.ExpiresAt.Format("2006-01-02 15:04"))
	default:
		fmt.Printf("Expiry: %s\n", tokens.ExpiresAt.Format("2006-01-02 15:04"))
	}

	check, _ := cmd.Flags().GetBool("check")
	if !check {
		return nil
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	notebooks, err := client.ListNotebooks(context.Background())
	if err != nil {
		return fmt.Errorf("service check failed: %w", err)
	}
	fmt.Printf("Service reachable: %d notebook(s) visible\n", len(notebooks))
	return nil
}
