package cmd

import (
	"errors"
	"fmt"

	"github.com/slotcarhq/auctionhouse/internal/auth"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
	"github.com/spf13/cobra"
)

var (
	tokenRef     string
	tokenName    string
	tokenEmail   string
	tokenPhone   string
	tokenSubject string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue credentials for local testing",
}

var bidderTokenCmd = &cobra.Command{
	Use:   "bidder",
	Short: "Issue a bidder bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenRef == "" {
			return errors.New("--ref is required")
		}
		tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.BidderTTL.Duration)
		token, err := tokens.IssueBidder(bidders.Identity{
			ExternalRef: tokenRef,
			DisplayName: tokenName,
			Email:       tokenEmail,
			Phone:       tokenPhone,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var adminTokenCmd = &cobra.Command{
	Use:   "admin",
	Short: "Issue an operator session cookie value",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSubject == "" {
			return errors.New("--subject is required")
		}
		sessions := auth.NewSessions(cfg.Auth.SessionKey)
		value, err := sessions.Sign(sessions.NewAdmin(tokenSubject, cfg.Auth.AdminTTL.Duration))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", auth.AdminCookieName, value)
		return nil
	},
}

func init() {
	bidderTokenCmd.Flags().StringVar(&tokenRef, "ref", "", "external customer reference")
	bidderTokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	bidderTokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email address")
	bidderTokenCmd.Flags().StringVar(&tokenPhone, "phone", "", "phone number")
	adminTokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "operator identity")

	tokenCmd.AddCommand(bidderTokenCmd, adminTokenCmd)
	rootCmd.AddCommand(tokenCmd)
}
