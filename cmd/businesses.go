package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var businessesCmd = &cobra.Command{
	Use:   "businesses",
	Short: "Inspect scraped business records",
}

// -- businesses failed --

var businessesFailedCmd = &cobra.Command{
	Use:   "failed <tenant-id>",
	Short: "List failed scrape stubs for a dealer",
	Long:  "Failed scrapes leave a business row with scrape_status=failed behind for forensics. This lists them.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		failed, err := st.ListFailedBusinesses(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "businesses failed")
		}

		if len(failed) == 0 {
			fmt.Fprintln(os.Stderr, "No failed scrape stubs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPLACE_ID\tSCRAPED_AT")
		for _, b := range failed {
			placeID := b.PlaceID
			if placeID == "" {
				placeID = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				b.ID, b.Name, placeID, b.ScrapedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	businessesCmd.AddCommand(businessesFailedCmd)
	rootCmd.AddCommand(businessesCmd)
}
