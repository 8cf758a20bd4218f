package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/wire"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the stock movement ledger",
	Long:  "The ledger is append-only; every stock change is an entry with a running balance",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		station, _ := cmd.Flags().GetString("station")
		item, _ := cmd.Flags().GetString("item")
		order, _ := cmd.Flags().GetString("order")
		reason, _ := cmd.Flags().GetString("reason")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.StockAdapter().Ledger(commandContext(), primary.LedgerListFilters{
			StationName: station,
			ItemID:      item,
			OrderRef:    order,
			Reason:      reason,
			Limit:       limit,
		})
	},
}

var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay the ledger and check every balance",
	Long:  "Replays all entries per station and item, checking that balances never go negative and end at the stored stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.StockAdapter().VerifyLedger(commandContext())
	},
}

func init() {
	ledgerListCmd.Flags().StringP("station", "s", "", "Filter by station")
	ledgerListCmd.Flags().String("item", "", "Filter by item ID")
	ledgerListCmd.Flags().String("order", "", "Filter by order number or ID")
	ledgerListCmd.Flags().String("reason", "", "Filter by movement reason")
	ledgerListCmd.Flags().IntP("limit", "n", 0, "Maximum entries to show")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerVerifyCmd)
}

// LedgerCmd returns the ledger command
func LedgerCmd() *cobra.Command {
	return ledgerCmd
}
