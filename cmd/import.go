package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/shoplens/shoplens-cli/internal/backup"
	"github.com/shoplens/shoplens-cli/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <backup.json>",
	Short: "Restore a JSON backup",
	Long:  "Replaces the stored dataset with a previously exported backup. Cost settings carried by the backup are merged into the settings document.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "import: open file")
		}
		defer f.Close()

		doc, err := backup.Read(f)
		if err != nil {
			if errors.Is(err, backup.ErrRejected) {
				fmt.Fprintln(os.Stderr, color.RedString("✗ Invalid backup file format"))
			}
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		userKey := cfg.User.Key
		if err := st.SaveDataset(ctx, userKey, doc.Data); err != nil {
			return err
		}

		if len(doc.CostSettings) > 0 {
			settings, err := st.LoadSettings(ctx, userKey)
			if err != nil {
				return err
			}
			if settings == nil {
				settings = model.DefaultSettings()
			}
			for key, cost := range doc.CostSettings {
				settings.SetCost(key, cost)
			}
			if err := st.SaveSettings(ctx, userKey, settings); err != nil {
				return err
			}
		}

		color.Green("✓ Restored %d orders and %d products (exported %s)",
			len(doc.Data.Orders), len(doc.Data.Products), doc.ExportDate.Format("2006-01-02"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
