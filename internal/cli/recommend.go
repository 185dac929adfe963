package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"crown_back_end/internal/models"

	"github.com/spf13/cobra"
)

func newRecommendCommand(s *state) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Inspect what the recommendation engine returns",
	}
	cmd.PersistentFlags().IntVar(&limit, "limit", 8, "number of products")

	list := func(use, short string, args cobra.PositionalArgs, fetch func(ctx context.Context, args []string) ([]models.Product, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				products, err := fetch(cmd.Context(), args)
				if err != nil {
					return err
				}
				return printProducts(cmd, products)
			},
		}
	}
	cmd.AddCommand(
		list("popular", "Best sellers by orders and rating", cobra.NoArgs,
			func(ctx context.Context, _ []string) ([]models.Product, error) {
				return s.app.Engine.Popular(ctx, limit)
			}),
		list("trending", "Most active products of the last week", cobra.NoArgs,
			func(ctx context.Context, _ []string) ([]models.Product, error) {
				return s.app.Engine.TrendingProducts(ctx, limit)
			}),
		list("for-you USER_ID", "Personalized picks for a shopper", cobra.ExactArgs(1),
			func(ctx context.Context, args []string) ([]models.Product, error) {
				return s.app.Engine.ForYou(ctx, args[0], limit)
			}),
		list("similar PRODUCT_ID", "Products like the given one", cobra.ExactArgs(1),
			func(ctx context.Context, args []string) ([]models.Product, error) {
				return s.app.Engine.Similar(ctx, args[0], limit)
			}),
	)
	return cmd
}

func printProducts(cmd *cobra.Command, products []models.Product) error {
	if len(products) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no products")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tORDERS")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.StockQuantity, p.OrderCount)
	}
	return tw.Flush()
}
