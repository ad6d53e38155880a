package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shoplens/shoplens-cli/internal/dataset"
)

var (
	productsCombine string
	productsSort    string
	productsCosting bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List aggregated products",
	Long:  "Lists the product table with optional variant grouping: none expands size groups back to variants, by-size keeps the stored grouping, by-name folds everything under the product name.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		d, settings, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		if d == nil {
			fmt.Fprintln(os.Stderr, "No data uploaded yet. Run: shoplens upload <file.csv>")
			return nil
		}

		mode, err := dataset.ParseCombineMode(productsCombine)
		if err != nil {
			return err
		}

		products := dataset.Combine(d, mode)
		if productsCosting {
			products = dataset.CostingProducts(d, settings.SizeCostingEnabled)
		}

		switch productsSort {
		case "revenue":
			sort.SliceStable(products, func(i, j int) bool { return products[i].TotalRevenue > products[j].TotalRevenue })
		case "quantity":
			sort.SliceStable(products, func(i, j int) bool { return products[i].TotalQuantity > products[j].TotalQuantity })
		case "name":
			sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Product", "Variant", "Qty", "Revenue", "Orders", "Variants"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

		for _, p := range products {
			name := p.Name
			if productsCosting && p.DisplayName != "" {
				name = p.DisplayName
			}
			table.Append([]string{
				name,
				p.Variant,
				fmt.Sprintf("%d", p.TotalQuantity),
				money(p.TotalRevenue),
				fmt.Sprintf("%d", len(p.Orders)),
				strings.Join(p.OriginalVariants, ", "),
			})
		}
		table.Render()

		return nil
	},
}

func init() {
	productsCmd.Flags().StringVar(&productsCombine, "combine", "by-size", "variant grouping (none|by-size|by-name)")
	productsCmd.Flags().StringVar(&productsSort, "sort", "revenue", "sort order (revenue|quantity|name)")
	productsCmd.Flags().BoolVar(&productsCosting, "costing", false, "show rows keyed the way cost entry expects them")
	rootCmd.AddCommand(productsCmd)
}
