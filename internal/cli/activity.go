package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/ports/secondary"
	"github.com/example/brickline/internal/wire"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the activity feed",
	Long:  "Every command that changes an order, item or stock line leaves an entry here",
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType, _ := cmd.Flags().GetString("type")
		entityID, _ := cmd.Flags().GetString("id")
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := wire.ActivityLog().List(commandContext(), secondary.ActivityFilters{
			EntityType: entityType,
			EntityID:   entityID,
			Limit:      limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list activity: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No activity recorded")
			return nil
		}

		fmt.Printf("\n%-17s %-6s %-10s %-10s %-10s %s\n", "WHEN", "TYPE", "ENTITY", "ACTION", "ACTOR", "DETAIL")
		fmt.Println("──────────────────────────────────────────────────────────────────────────────")
		for _, r := range records {
			when := r.CreatedAt
			if len(when) > 16 {
				when = when[:16]
			}
			fmt.Printf("%-17s %-6s %-10s %-10s %-10s %s\n", when, r.EntityType, r.EntityID, r.Action, r.Actor, r.Detail)
		}
		fmt.Println()

		return nil
	},
}

func init() {
	activityCmd.Flags().StringP("type", "t", "", "Filter by entity type (order, item, stock)")
	activityCmd.Flags().String("id", "", "Filter by entity ID")
	activityCmd.Flags().IntP("limit", "n", 30, "Maximum entries to show")
}

// ActivityCmd returns the activity command
func ActivityCmd() *cobra.Command {
	return activityCmd
}
