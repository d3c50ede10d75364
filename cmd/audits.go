package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dealerpulse/reviews-cli/internal/model"
	"github.com/dealerpulse/reviews-cli/internal/store"
)

var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "Inspect scrape run history",
	Long:  "Commands for listing and viewing scrape audit records.",
}

// -- audits list --

var auditsListCmd = &cobra.Command{
	Use:   "list <tenant-id>",
	Short: "List scrape audits for a dealer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		audits, err := st.ListAudits(ctx, args[0], store.AuditFilter{
			Status: model.AuditStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "audits list")
		}

		if len(audits) == 0 {
			fmt.Fprintln(os.Stderr, "No audits found.")
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(audits)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tSCRAPED\tNEW\tDUP\tANALYSIS\tSTARTED\tDURATION")
		for _, a := range audits {
			analysis := string(a.AnalysisStatus)
			if analysis == "" {
				analysis = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%.1fs\n",
				a.ID, a.Status, a.ScrapedCount, a.NewCount, a.DuplicateCount,
				analysis, a.StartedAt.Format(time.RFC3339), a.Duration)
		}
		return w.Flush()
	},
}

// -- audits show --

var auditsShowCmd = &cobra.Command{
	Use:   "show <audit-id>",
	Short: "Show one scrape audit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a, err := st.GetAudit(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "audits show")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		}

		fmt.Printf("Audit:       %s\n", a.ID)
		fmt.Printf("Tenant:      %s\n", a.TenantID)
		fmt.Printf("Status:      %s\n", a.Status)
		if a.RequestedBy != "" {
			fmt.Printf("Requested:   %s\n", a.RequestedBy)
		}
		fmt.Printf("Parameters:  max_reviews=%d language=%s auto_analyze=%t\n",
			a.MaxReviews, a.Language, a.AutoAnalyze)
		if a.Status == model.AuditStatusCompleted {
			fmt.Printf("Business:    %s (%s)\n", a.BusinessName, a.PlaceID)
			fmt.Printf("Rating:      %.1f (%d reviews on Google)\n", a.Rating, a.TotalReviews)
			fmt.Printf("Scraped:     %d (%d new, %d duplicate)\n",
				a.ScrapedCount, a.NewCount, a.DuplicateCount)
		}
		if a.ErrorMessage != "" {
			fmt.Printf("Error:       %s\n", a.ErrorMessage)
		}
		if a.WarningMessage != "" {
			fmt.Printf("Warning:     %s\n", a.WarningMessage)
		}
		if a.AnalysisStatus != "" {
			fmt.Printf("Analysis:    %s (%d analyzed, %d failed, %.1fs)\n",
				a.AnalysisStatus, a.AnalyzedCount, a.AnalysisFailedCount, a.AnalysisDuration)
		}
		fmt.Printf("Started:     %s\n", a.StartedAt.Format(time.RFC3339))
		if a.CompletedAt != nil {
			fmt.Printf("Completed:   %s (%.1fs)\n", a.CompletedAt.Format(time.RFC3339), a.Duration)
		}
		return nil
	},
}

func init() {
	auditsListCmd.Flags().String("status", "", "filter by status (processing, completed, failed)")
	auditsListCmd.Flags().Int("limit", 20, "maximum audits to list")
	auditsListCmd.Flags().Bool("json", false, "output as JSON")
	auditsShowCmd.Flags().Bool("json", false, "output as JSON")

	auditsCmd.AddCommand(auditsListCmd)
	auditsCmd.AddCommand(auditsShowCmd)
	rootCmd.AddCommand(auditsCmd)
}
