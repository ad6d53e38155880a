package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ordersLimit int

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List stored orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		d, _, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		if d == nil {
			fmt.Fprintln(os.Stderr, "No data uploaded yet. Run: shoplens upload <file.csv>")
			return nil
		}

		orders := d.Orders
		if ordersLimit > 0 && len(orders) > ordersLimit {
			orders = orders[:ordersLimit]
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Order", "Date", "Total", "Items"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

		for _, o := range orders {
			var items int
			for _, item := range o.Items {
				items += item.Quantity
			}
			table.Append([]string{
				o.ID,
				o.Date.Format("2006-01-02"),
				money(o.Total),
				fmt.Sprintf("%d", items),
			})
		}
		table.Render()

		fmt.Printf("\n%d of %d orders shown\n", len(orders), len(d.Orders))
		return nil
	},
}

func init() {
	ordersCmd.Flags().IntVar(&ordersLimit, "limit", 0, "show at most N orders (0 = all)")
	rootCmd.AddCommand(ordersCmd)
}
