package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/wire"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage catalog items",
	Long:  "Create, list, and inspect products, modules, and parts",
}

var itemCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new catalog item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		category, _ := cmd.Flags().GetString("category")
		cost, _ := cmd.Flags().GetString("cost")
		procurable, _ := cmd.Flags().GetBool("procurable")

		return wire.CatalogAdapter().CreateItem(commandContext(), primary.CreateItemRequest{
			Name:       args[0],
			Kind:       kind,
			Category:   category,
			UnitCost:   cost,
			Procurable: procurable,
		})
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		category, _ := cmd.Flags().GetString("category")

		return wire.CatalogAdapter().ListItems(commandContext(), kind, category)
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show [item-id]",
	Short: "Show item details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CatalogAdapter().ShowItem(commandContext(), args[0])
	},
}

var itemCostCmd = &cobra.Command{
	Use:   "cost [item-id]",
	Short: "Show the rolled-up material cost of one unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CatalogAdapter().RolledUpCost(commandContext(), args[0])
	},
}

func init() {
	itemCreateCmd.Flags().StringP("kind", "k", "", "Item kind: product, module, or part (required)")
	itemCreateCmd.Flags().String("category", "", "Free-form grouping label")
	itemCreateCmd.Flags().String("cost", "", "Unit cost as a decimal, e.g. 0.10")
	itemCreateCmd.Flags().Bool("procurable", false, "Item can be sourced from outside the chain")

	itemListCmd.Flags().StringP("kind", "k", "", "Filter by kind")
	itemListCmd.Flags().String("category", "", "Filter by category")

	itemCmd.AddCommand(itemCreateCmd)
	itemCmd.AddCommand(itemListCmd)
	itemCmd.AddCommand(itemShowCmd)
	itemCmd.AddCommand(itemCostCmd)
}

// ItemCmd returns the item command
func ItemCmd() *cobra.Command {
	return itemCmd
}
