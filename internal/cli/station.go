package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/wire"
)

var stationCmd = &cobra.Command{
	Use:   "station",
	Short: "Inspect the assembly chain stations",
}

var stationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stations in chain order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CatalogAdapter().ListStations(commandContext())
	},
}

func init() {
	stationCmd.AddCommand(stationListCmd)
}

// StationCmd returns the station command
func StationCmd() *cobra.Command {
	return stationCmd
}
