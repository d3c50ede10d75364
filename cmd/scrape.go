package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dealerpulse/reviews-cli/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <tenant-id>",
	Short: "Scrape Google reviews for one dealer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		maxReviews, _ := cmd.Flags().GetInt("max-reviews")
		language, _ := cmd.Flags().GetString("language")
		requestedBy, _ := cmd.Flags().GetString("requested-by")
		analyze, _ := cmd.Flags().GetBool("analyze")

		res, err := env.Orchestrator.Run(ctx, pipeline.Request{
			TenantID:    args[0],
			MaxReviews:  maxReviews,
			Language:    language,
			RequestedBy: requestedBy,
			AutoAnalyze: analyze,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Audit:      %s\n", res.AuditID)
		fmt.Printf("Business:   %s (%s)\n", res.Outcome.BusinessName, res.Outcome.PlaceID)
		fmt.Printf("Rating:     %.1f (%d reviews on Google)\n", res.Outcome.Rating, res.Outcome.TotalReviews)
		fmt.Printf("Scraped:    %d (%d new, %d duplicate)\n",
			res.Outcome.ScrapedCount, res.Outcome.NewCount, res.Outcome.DuplicateCount)
		if res.EnrichmentScheduled {
			fmt.Fprintln(os.Stderr, "Sentiment analysis scheduled; waiting for workers to drain...")
		}

		return nil
	},
}

func init() {
	scrapeCmd.Flags().Int("max-reviews", 0, "reviews to fetch (default from config, capped)")
	scrapeCmd.Flags().String("language", "", "review language (default from config)")
	scrapeCmd.Flags().String("requested-by", "cli", "requester recorded on the audit")
	scrapeCmd.Flags().Bool("analyze", false, "schedule sentiment analysis for new reviews")
	rootCmd.AddCommand(scrapeCmd)
}
