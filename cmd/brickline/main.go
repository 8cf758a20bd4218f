package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/cli"
	"github.com/example/brickline/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "brickline",
		Short:   "brickline - order orchestration for the brick assembly chain",
		Version: version.String(),
		Long: `brickline tracks a six-station assembly chain: its catalog and BOM graph,
the stock held at every station, and the orders that move material between them.
Confirming an order nets its demand against stock and routes one of three
scenarios; downstream orders cascade until every shortfall is covered.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.StationCmd())
	rootCmd.AddCommand(cli.ItemCmd())
	rootCmd.AddCommand(cli.BomCmd())
	rootCmd.AddCommand(cli.StockCmd())
	rootCmd.AddCommand(cli.LedgerCmd())
	rootCmd.AddCommand(cli.OrderCmd())
	rootCmd.AddCommand(cli.ActivityCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
