package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shoplens/shoplens-cli/internal/dataset"
	"github.com/shoplens/shoplens-cli/internal/model"
	"github.com/shoplens/shoplens-cli/internal/profit"
	"github.com/shoplens/shoplens-cli/internal/store"
)

var (
	reportFrom string
	reportTo   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the revenue and profit summary",
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

		if d, err = applyDateFilter(d); err != nil {
			return err
		}

		report := profit.Compute(d, settings)

		color.Cyan("Summary")
		fmt.Printf("  Orders:  %d\n", d.Summary.TotalOrders)
		fmt.Printf("  Items:   %d\n", d.Summary.TotalItems)
		fmt.Printf("  Revenue: %s\n", money(d.Summary.TotalRevenue))
		if report.TotalProfit >= 0 {
			fmt.Printf("  Profit:  %s\n", color.GreenString(money(report.TotalProfit)))
		} else {
			fmt.Printf("  Profit:  %s\n", color.RedString(money(report.TotalProfit)))
		}
		fmt.Println()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Product", "Variant", "Qty", "Revenue", "Cost", "Profit", "Margin"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

		for _, p := range report.Products {
			table.Append([]string{
				p.Name,
				p.Variant,
				fmt.Sprintf("%d", p.TotalQuantity),
				money(p.TotalRevenue),
				money(p.TotalCost),
				money(p.Profit),
				fmt.Sprintf("%.1f%%", p.ProfitMargin),
			})
		}
		table.Render()

		return nil
	},
}

// loadData loads the dataset and settings for the configured user, applying
// default settings when none were saved.
func loadData(ctx context.Context, st store.Store) (*model.Dataset, *model.Settings, error) {
	d, err := st.LoadDataset(ctx, cfg.User.Key)
	if err != nil {
		return nil, nil, err
	}
	settings, err := st.LoadSettings(ctx, cfg.User.Key)
	if err != nil {
		return nil, nil, err
	}
	if settings == nil {
		settings = model.DefaultSettings()
	}
	return d, settings, nil
}

// applyDateFilter narrows the dataset to the --from/--to range when either
// flag is set.
func applyDateFilter(d *model.Dataset) (*model.Dataset, error) {
	if reportFrom == "" && reportTo == "" {
		return d, nil
	}

	from := time.Time{}
	to := time.Now()
	var err error

	if reportFrom != "" {
		if from, err = time.Parse("2006-01-02", reportFrom); err != nil {
			return nil, eris.Wrapf(err, "report: parse --from %q", reportFrom)
		}
	}
	if reportTo != "" {
		if to, err = time.Parse("2006-01-02", reportTo); err != nil {
			return nil, eris.Wrapf(err, "report: parse --to %q", reportTo)
		}
	}
	return dataset.FilterByDate(d, from, to), nil
}

var moneyPrinter = message.NewPrinter(language.English)

// money renders an amount with thousands separators and the configured
// currency code.
func money(amount float64) string {
	symbol := "$"
	if cfg != nil && cfg.Report.Currency != "" && cfg.Report.Currency != "USD" {
		symbol = cfg.Report.Currency + " "
	}
	return moneyPrinter.Sprintf("%s%.2f", symbol, amount)
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "end date (YYYY-MM-DD)")
	rootCmd.AddCommand(reportCmd)
}
