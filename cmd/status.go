package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dealerpulse/reviews-cli/internal/monitoring"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline health over the lookback window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hours, _ := cmd.Flags().GetInt("hours")
		if hours == 0 {
			hours = cfg.Monitoring.LookbackHours
		}

		collector := monitoring.NewCollector(st, hours)
		snap, err := collector.Collect(ctx)
		if err != nil {
			return eris.Wrap(err, "status collect")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		fmt.Printf("Last %dh:\n", snap.LookbackHours)
		fmt.Printf("  Scrapes:   %d total (%d completed, %d failed, %d processing)\n",
			snap.AuditTotal, snap.AuditCompleted, snap.AuditFailed, snap.AuditProcessing)
		fmt.Printf("  Fail rate: %.1f%%\n", snap.FailureRate*100)
		fmt.Printf("  Reviews:   %d scraped (%d new, %d duplicate)\n",
			snap.ReviewsScraped, snap.ReviewsNew, snap.ReviewsDuplicate)
		fmt.Printf("  Analysis:  %d completed, %d failed, %d pending\n",
			snap.AnalysisCompleted, snap.AnalysisFailed, snap.AnalysisPending)

		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(snap)
		for _, alert := range alerts {
			fmt.Printf("  ALERT [%s]: %s\n", alert.Severity, alert.Message)
		}

		if send, _ := cmd.Flags().GetBool("alert"); send && len(alerts) > 0 {
			sent := alerter.SendAlerts(ctx, alerts)
			fmt.Printf("Sent %d of %d alerts\n", sent, len(alerts))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("hours", 0, "lookback window in hours (default from config)")
	statusCmd.Flags().Bool("json", false, "output as JSON")
	statusCmd.Flags().Bool("alert", false, "deliver threshold breaches to the configured webhook")
	rootCmd.AddCommand(statusCmd)
}
