package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSeedCommand loads catalog and coupon fixtures.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Upsert products and coupons from a YAML fixture",
		Long: `Upserts products (matched by name, with their variations and stock) and
coupons (matched by code). Entries that fail validation are reported
together after the rest of the file has been applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := LoadSeedFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := openRuntime(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			seeder, err := NewSeeder(rt.db)
			if err != nil {
				return err
			}
			result, err := seeder.Apply(ctx, file)
			fmt.Fprintf(cmd.OutOrStdout(), "products: %d created, %d updated; coupons: %d created, %d updated\n",
				result.ProductsCreated, result.ProductsUpdated, result.CouponsCreated, result.CouponsUpdated)
			if err != nil {
				rt.logg.Error(ctx, "seed finished with errors", err)
				return err
			}
			return nil
		},
	}
}
