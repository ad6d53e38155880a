package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/shoplens/shoplens-cli/internal/backup"
	"github.com/shoplens/shoplens-cli/internal/profit"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the dataset as a JSON backup or XLSX report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

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

		switch exportFormat {
		case "json":
			f, err := os.Create(path)
			if err != nil {
				return eris.Wrap(err, "export: create file")
			}
			defer f.Close()

			doc := backup.Export(d, settings.CostSettings, time.Now().UTC())
			if err := backup.Write(f, doc); err != nil {
				return err
			}

		case "xlsx":
			report := profit.Compute(d, settings)
			if err := backup.WriteXLSX(path, d, report); err != nil {
				return err
			}

		default:
			return eris.Errorf("unknown export format: %q (valid: json, xlsx)", exportFormat)
		}

		color.Green("✓ Exported %d orders and %d products to %s", len(d.Orders), len(d.Products), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format (json|xlsx)")
	rootCmd.AddCommand(exportCmd)
}
