package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var uploadsLimit int

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Show upload history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		logs, err := st.ListUploads(ctx, cfg.User.Key, uploadsLimit)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Fprintln(os.Stderr, "No uploads recorded.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"When", "File", "Mode", "Rows", "Processed", "Skipped", "New Orders", "Dup Orders"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

		for _, l := range logs {
			table.Append([]string{
				l.CreatedAt.Local().Format("2006-01-02 15:04"),
				l.FileName,
				string(l.Mode),
				fmt.Sprintf("%d", l.RowsTotal),
				fmt.Sprintf("%d", l.RowsProcessed),
				fmt.Sprintf("%d", l.RowsSkipped),
				fmt.Sprintf("%d", l.NewOrders),
				fmt.Sprintf("%d", l.DuplicateOrders),
			})
		}
		table.Render()

		return nil
	},
}

func init() {
	uploadsCmd.Flags().IntVar(&uploadsLimit, "limit", 20, "show at most N uploads")
	rootCmd.AddCommand(uploadsCmd)
}
