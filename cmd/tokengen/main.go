// tokengen issues a pre-issued credential for a user id. Set the result as
// HELPDESK_INITIAL_AUTH_TOKEN so the service starts as that user instead of
// an anonymous one.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/helpdesk-sync/internal/auth"
	"github.com/spec-kit/helpdesk-sync/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var userID string
	var ttlMinutes int
	var showExpiry bool

	flagSet := pflag.NewFlagSet("tokengen", pflag.ContinueOnError)
	flagSet.StringVarP(&userID, "user", "u", "", "user id the credential is issued for (required)")
	flagSet.IntVar(&ttlMinutes, "ttl", cfg.Auth.AccessTokenTTLMinutes, "credential lifetime in minutes")
	flagSet.BoolVar(&showExpiry, "show-expiry", false, "print the expiry time on a second line")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if userID == "" {
		return fmt.Errorf("--user is required")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttlMinutes)
	token, expiresAt, err := tokens.GenerateToken(userID)
	if err != nil {
		return fmt.Errorf("issue credential: %w", err)
	}

	fmt.Fprintln(out, token)
	if showExpiry {
		fmt.Fprintln(out, expiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}
