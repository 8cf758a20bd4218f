package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/config"
	"github.com/example/brickline/internal/wire"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the assembly chain",
	Long:  "Create the six-station assembly chain and optionally save operator defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.CatalogAdapter().InitChain(commandContext()); err != nil {
			return err
		}

		actor, _ := cmd.Flags().GetString("actor")
		station, _ := cmd.Flags().GetString("station")
		if actor != "" || station != "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg := &config.Config{Version: "1", Actor: actor, Station: station}
			if err := config.SaveConfig(cwd, cfg); err != nil {
				return err
			}
			fmt.Println("✓ Saved operator defaults to .brickline/config.json")
		}

		return nil
	},
}

func init() {
	initCmd.Flags().String("actor", "", "Operator name stamped on ledger entries")
	initCmd.Flags().String("station", "", "Default station for stock commands")
}

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return initCmd
}
