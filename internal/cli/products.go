package cli

import (
	"fmt"

	"crown_back_end/internal/catalog"

	"github.com/spf13/cobra"
)

func newProductsCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var (
		category, sortBy string
		limit            int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List products in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := s.app.Catalog.List(cmd.Context(), catalog.ListOptions{
				Category: category,
				Sort:     sortBy,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			return printProducts(cmd, page.Products)
		},
	}
	list.Flags().StringVar(&category, "category", "", "only this category")
	list.Flags().StringVar(&sortBy, "sort", catalog.SortBalanced, "balanced, popularity, price_low, price_high, newest or rating")
	list.Flags().IntVar(&limit, "limit", 20, "number of products")

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := s.app.Catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(list, categories)
	return cmd
}
