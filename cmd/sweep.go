package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one lifecycle sweep and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx := cmd.Context()
		svc, err := buildServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.close()

		report, err := svc.sweeper.Run(ctx)
		if report != nil {
			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
