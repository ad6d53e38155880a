package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/shoplens/shoplens-cli/internal/model"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Manage unit costs and the costing mode",
	Long:  "Commands for setting per-product unit costs, per-variant overrides, and switching between unified and per-size costing.",
}

// -- cost set --

var costSetCmd = &cobra.Command{
	Use:   "set <product> <cost>",
	Short: "Set the unit cost for a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cost, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "cost: parse %q", args[1])
		}
		return updateSettings(cmd, func(s *model.Settings) {
			s.SetCost(args[0], cost)
			color.Green("✓ Cost for %q set to %s", args[0], money(cost))
		})
	},
}

// -- cost unset --

var costUnsetCmd = &cobra.Command{
	Use:   "unset <product>",
	Short: "Remove the unit cost for a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, func(s *model.Settings) {
			s.UnsetCost(args[0])
			color.Green("✓ Cost for %q removed", args[0])
		})
	},
}

// -- cost override --

var costOverrideCmd = &cobra.Command{
	Use:   "override <product> <variant> <cost>",
	Short: "Set a per-variant cost override for unified mode",
	Long:  "Overrides the unified product cost for one variant. A cost of 0 clears the override.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cost, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return eris.Wrapf(err, "cost: parse %q", args[2])
		}
		return updateSettings(cmd, func(s *model.Settings) {
			s.SetSizeOverride(args[0], args[1], cost)
			if cost <= 0 {
				color.Green("✓ Override for %q / %q cleared", args[0], args[1])
			} else {
				color.Green("✓ Override for %q / %q set to %s", args[0], args[1], money(cost))
			}
		})
	},
}

// -- cost mode --

var costModeCmd = &cobra.Command{
	Use:   "mode <unified|per-size>",
	Short: "Switch the costing mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "per-size":
			enabled = true
		case "unified":
			enabled = false
		default:
			return eris.Errorf("unknown costing mode: %q (valid: unified, per-size)", args[0])
		}
		return updateSettings(cmd, func(s *model.Settings) {
			s.SizeCostingEnabled = enabled
			color.Green("✓ Costing mode set to %s", args[0])
		})
	},
}

// -- cost show --

var costShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all cost entries and overrides",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		settings, err := st.LoadSettings(ctx, cfg.User.Key)
		if err != nil {
			return err
		}
		if settings == nil {
			settings = model.DefaultSettings()
		}

		mode := "unified"
		if settings.SizeCostingEnabled {
			mode = "per-size"
		}
		fmt.Printf("Costing mode: %s\n\n", mode)

		if len(settings.CostSettings) == 0 {
			fmt.Fprintln(os.Stderr, "No costs set. Run: shoplens cost set <product> <cost>")
			return nil
		}

		keys := make([]string, 0, len(settings.CostSettings))
		for k := range settings.CostSettings {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Product", "Unit Cost"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		for _, k := range keys {
			table.Append([]string{k, money(settings.CostSettings[k])})
		}
		table.Render()

		if len(settings.SizeOverrides) > 0 {
			fmt.Println()
			color.Cyan("Variant overrides")
			products := make([]string, 0, len(settings.SizeOverrides))
			for p := range settings.SizeOverrides {
				products = append(products, p)
			}
			sort.Strings(products)
			for _, p := range products {
				variants := make([]string, 0, len(settings.SizeOverrides[p]))
				for v := range settings.SizeOverrides[p] {
					variants = append(variants, v)
				}
				sort.Strings(variants)
				for _, v := range variants {
					fmt.Printf("  %s / %s: %s\n", p, v, money(settings.SizeOverrides[p][v]))
				}
			}
		}

		return nil
	},
}

// updateSettings loads, mutates, and saves the settings document in one step.
func updateSettings(cmd *cobra.Command, mutate func(*model.Settings)) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	settings, err := st.LoadSettings(ctx, cfg.User.Key)
	if err != nil {
		return err
	}
	if settings == nil {
		settings = model.DefaultSettings()
	}

	mutate(settings)

	return st.SaveSettings(ctx, cfg.User.Key, settings)
}

func init() {
	costCmd.AddCommand(costSetCmd)
	costCmd.AddCommand(costUnsetCmd)
	costCmd.AddCommand(costOverrideCmd)
	costCmd.AddCommand(costModeCmd)
	costCmd.AddCommand(costShowCmd)
	rootCmd.AddCommand(costCmd)
}
