package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/EgorLis/asset-catalog/internal/auth/token"
	"github.com/EgorLis/asset-catalog/internal/config"
	"github.com/EgorLis/asset-catalog/internal/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var (
	issueLogin string
	issueRole  string
	issueTTL   time.Duration
)

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed access token",
	Long: `Issue a JWT signed with AUTH_JWT_SECRET.
The token is printed to stdout; revoke it with DELETE /auth/{token}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := domain.Role(issueRole)
		if role != domain.RoleAdmin && role != domain.RoleUser {
			return fmt.Errorf("unknown role %q", issueRole)
		}
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}
		ttl := cfg.AuthTokenTTL
		if issueTTL > 0 {
			ttl = issueTTL
		}

		tm := token.New(cfg.AuthJWTSecret, cfg.AuthIssuer, ttl)
		tok, claims, err := tm.Issue(cmd.Context(), domain.Identity{
			UserID: domain.UserID(uuid.New()),
			Login:  issueLogin,
			Role:   role,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		fmt.Fprintf(cmd.ErrOrStderr(), "jti=%s expires=%s\n", claims.JTI, claims.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&issueLogin, "login", "admin", "subject login")
	tokenIssueCmd.Flags().StringVar(&issueRole, "role", string(domain.RoleAdmin), "role: admin or user")
	tokenIssueCmd.Flags().DurationVar(&issueTTL, "ttl", 0, "lifetime, defaults to AUTH_TOKEN_TTL")
	tokenCmd.AddCommand(tokenIssueCmd)
}
