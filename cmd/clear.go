package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shoplens/shoplens-cli/internal/store"
)

var (
	clearAll bool
	clearYes bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored dataset",
	Long:  "Deletes the stored dataset for the configured user. With --all, cost settings are deleted too.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !clearYes && !confirm("This permanently deletes stored data. Continue? [y/N] ") {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := clearData(cmd, st); err != nil {
			return err
		}

		if clearAll {
			color.Green("✓ Dataset and settings cleared")
		} else {
			color.Green("✓ Dataset cleared")
		}
		return nil
	},
}

func clearData(cmd *cobra.Command, st store.Store) error {
	ctx := cmd.Context()
	userKey := cfg.User.Key

	if err := st.DeleteDataset(ctx, userKey); err != nil {
		return err
	}
	if clearAll {
		return st.DeleteSettings(ctx, userKey)
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "also delete cost settings")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}
