package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the competition catalog",
		Long: `Upsert competitions by name from a YAML catalog file, or from the
built-in line-up when no file is given. Existing entries keep their IDs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close(ctx) //nolint:errcheck // nothing to do on a failed close

			if a.Mongo == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: MONGODB_URI is not set, the catalog only lives for this run")
			}

			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = a.Config.Registration.CatalogFile
			}
			n, err := a.SeedCatalog(ctx, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d competitions\n", n)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Catalog YAML file (defaults to CATALOG_FILE, then the built-in catalog)")
	return cmd
}
