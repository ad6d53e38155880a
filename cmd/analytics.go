package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shoplens/shoplens-cli/internal/profit"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show trends, top performers, and size distribution",
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

		in := profit.Analyze(d, settings)

		color.Cyan("Overview")
		fmt.Printf("  Avg order value:     %s\n", money(in.AvgOrderValue))
		fmt.Printf("  Avg items per order: %.1f\n", in.AvgItemsPerOrder)
		fmt.Printf("  Profitable products: %d\n", in.ProfitableProducts)
		fmt.Printf("  Total profit:        %s\n", money(in.TotalProfit))
		fmt.Printf("  Avg profit margin:   %.1f%%\n", in.AvgProfitMargin)
		fmt.Println()

		if len(in.MonthlyTrend) > 0 {
			color.Cyan("Monthly revenue (last %d months)", len(in.MonthlyTrend))
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Month", "Revenue", "Orders"})
			table.SetBorder(false)
			for _, m := range in.MonthlyTrend {
				table.Append([]string{m.Month, money(m.Revenue), fmt.Sprintf("%d", m.Orders)})
			}
			table.Render()
			fmt.Println()
		}

		if len(in.TopPerformers) > 0 {
			color.Cyan("Top performers")
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Product", "Variant", "Revenue", "Profit"})
			table.SetBorder(false)
			for _, p := range in.TopPerformers {
				table.Append([]string{p.Name, p.Variant, money(p.TotalRevenue), money(p.Profit)})
			}
			table.Render()
			fmt.Println()
		}

		if len(in.TopSizes) > 0 {
			color.Cyan("Top sizes")
			for _, s := range in.TopSizes {
				fmt.Printf("  %-10s %d units\n", s.Size, s.Units)
			}
			fmt.Println()
		}

		if len(in.BestDays) > 0 {
			color.Cyan("Best days")
			for _, day := range in.BestDays {
				fmt.Printf("  %s  %s\n", day.Day, money(day.Revenue))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}
