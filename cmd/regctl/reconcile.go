package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Settle stale pending registrations against Razorpay",
		Long: `Run one reconciliation pass: every pending registration with an order
older than --older-than is checked against the gateway, captured when the
payment is authorized, and moved to success or failed. Confirmation mails go
out exactly as they would from the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close(ctx) //nolint:errcheck // nothing to do on a failed close

			olderThan, _ := cmd.Flags().GetDuration("older-than")
			if !cmd.Flags().Changed("older-than") {
				olderThan = a.Config.Reconcile.OlderThan
			}
			limit, _ := cmd.Flags().GetInt("limit")
			if !cmd.Flags().Changed("limit") {
				limit = a.Config.Reconcile.BatchSize
			}

			report, err := a.Payments.ReconcilePending(ctx, olderThan, limit)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d succeeded=%d failed=%d unchanged=%d errors=%d\n",
				report.Checked, report.Succeeded, report.Failed, report.Unchanged, report.Errors)
			return nil
		},
	}
	cmd.Flags().Duration("older-than", 0, "Minimum age of the pending order (defaults to RECONCILE_OLDER_THAN)")
	cmd.Flags().IntP("limit", "n", 0, "Maximum registrations to check (defaults to RECONCILE_BATCH_SIZE)")
	cmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
	return cmd
}
