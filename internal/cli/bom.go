package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/wire"
)

var bomCmd = &cobra.Command{
	Use:   "bom",
	Short: "Manage the bill of materials",
	Long:  "Add, remove, and inspect composition edges between catalog items",
}

var bomAddCmd = &cobra.Command{
	Use:   "add [parent-id] [child-id]",
	Short: "Add a composition edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, _ := cmd.Flags().GetInt64("qty")
		return wire.CatalogAdapter().AddBOMEdge(commandContext(), args[0], args[1], qty)
	},
}

var bomRemoveCmd = &cobra.Command{
	Use:   "remove [parent-id] [child-id]",
	Short: "Remove a composition edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CatalogAdapter().RemoveBOMEdge(commandContext(), args[0], args[1])
	},
}

var bomShowCmd = &cobra.Command{
	Use:   "show [item-id]",
	Short: "Show the exploded composition tree below an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CatalogAdapter().ShowBOM(commandContext(), args[0])
	},
}

var bomCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the whole BOM graph",
	Long:  "Checks that every edge steps one level down the chain and no item can reach itself",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CatalogAdapter().CheckBOM(commandContext())
	},
}

func init() {
	bomAddCmd.Flags().Int64P("qty", "q", 1, "Units of the child needed per parent")

	bomCmd.AddCommand(bomAddCmd)
	bomCmd.AddCommand(bomRemoveCmd)
	bomCmd.AddCommand(bomShowCmd)
	bomCmd.AddCommand(bomCheckCmd)
}

// BomCmd returns the bom command
func BomCmd() *cobra.Command {
	return bomCmd
}
