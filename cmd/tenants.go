package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dealerpulse/reviews-cli/internal/model"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Manage dealer records",
}

// -- tenants add --

var tenantsAddCmd = &cobra.Command{
	Use:   "add <tenant-id>",
	Short: "Create or update one dealer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		name, _ := cmd.Flags().GetString("name")
		placeURL, _ := cmd.Flags().GetString("place-url")
		if name == "" {
			return eris.New("tenants add: --name is required")
		}

		t := &model.Tenant{ID: args[0], Name: name, PlaceURL: placeURL}
		if err := st.UpsertTenant(ctx, t); err != nil {
			return eris.Wrap(err, "tenants add")
		}

		fmt.Printf("Saved tenant %s (%s)\n", t.ID, t.Name)
		if !t.Configured() {
			fmt.Fprintln(os.Stderr, "Warning: no place url set; scrapes for this tenant will fail validation.")
		}
		return nil
	},
}

// tenantSeed is one entry of the import file.
type tenantSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	PlaceURL string `yaml:"place_url"`
}

// -- tenants import --

var tenantsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import dealers from a YAML seed file",
	Long:  "Reads a YAML list of {id, name, place_url} entries and upserts each as a tenant.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "tenants import: read file")
		}

		var seeds []tenantSeed
		if err := yaml.Unmarshal(raw, &seeds); err != nil {
			return eris.Wrap(err, "tenants import: parse yaml")
		}
		if len(seeds) == 0 {
			return eris.New("tenants import: file contains no tenants")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		imported := 0
		for _, seed := range seeds {
			if seed.ID == "" || seed.Name == "" {
				fmt.Fprintf(os.Stderr, "Skipping entry with missing id or name: %+v\n", seed)
				continue
			}
			t := &model.Tenant{ID: seed.ID, Name: seed.Name, PlaceURL: seed.PlaceURL}
			if err := st.UpsertTenant(ctx, t); err != nil {
				return eris.Wrapf(err, "tenants import: upsert %s", seed.ID)
			}
			imported++
		}

		fmt.Printf("Imported %d of %d tenants\n", imported, len(seeds))
		return nil
	},
}

// -- tenants show --

var tenantsShowCmd = &cobra.Command{
	Use:   "show <tenant-id>",
	Short: "Show one dealer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		t, err := st.GetTenant(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "tenants show")
		}

		fmt.Printf("ID:         %s\n", t.ID)
		fmt.Printf("Name:       %s\n", t.Name)
		if t.PlaceURL != "" {
			fmt.Printf("Place URL:  %s\n", t.PlaceURL)
		} else {
			fmt.Println("Place URL:  (not configured)")
		}
		fmt.Printf("Created:    %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	tenantsAddCmd.Flags().String("name", "", "dealer display name")
	tenantsAddCmd.Flags().String("place-url", "", "Google Maps place URL to scrape")

	tenantsCmd.AddCommand(tenantsAddCmd)
	tenantsCmd.AddCommand(tenantsImportCmd)
	tenantsCmd.AddCommand(tenantsShowCmd)
	rootCmd.AddCommand(tenantsCmd)
}
