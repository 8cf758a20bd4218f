package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/config"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/wire"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Manage orders across the assembly chain",
	Long:  "Create, plan, and drive orders of every kind through their lifecycle",
}

var orderCreateCmd = &cobra.Command{
	Use:   "create [item-id qty]...",
	Short: "Create a new order",
	Long:  "Create a pending order with one line per item-id/quantity pair",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := parseLineArgs(args)
		if err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("kind")
		station, _ := cmd.Flags().GetString("station")
		priority, _ := cmd.Flags().GetString("priority")
		note, _ := cmd.Flags().GetString("note")

		cwd, _ := os.Getwd()

		return wire.OrderAdapter().Create(commandContext(), primary.CreateOrderRequest{
			Kind:        kind,
			StationName: station,
			Priority:    priority,
			RequestedBy: config.ResolveActor(cwd),
			Note:        note,
			Lines:       lines,
		})
	},
}

var orderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		status, _ := cmd.Flags().GetString("status")
		station, _ := cmd.Flags().GetString("station")
		open, _ := cmd.Flags().GetBool("open")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.OrderAdapter().List(commandContext(), primary.OrderListFilters{
			Kind:        kind,
			Status:      status,
			StationName: station,
			OpenOnly:    open,
			Limit:       limit,
		})
	},
}

var orderShowCmd = &cobra.Command{
	Use:   "show [order]",
	Short: "Show order details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Show(commandContext(), args[0])
	},
}

var orderPlanCmd = &cobra.Command{
	Use:     "plan [order]",
	Aliases: []string{"net"},
	Short:   "Preview the order's netting plan without changing anything",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Plan(commandContext(), args[0])
	},
}

var orderConfirmCmd = &cobra.Command{
	Use:   "confirm [order]",
	Short: "Confirm a pending order and route its scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Confirm(commandContext(), args[0])
	},
}

var orderFulfillCmd = &cobra.Command{
	Use:   "fulfill [order]",
	Short: "Fulfill a confirmed order from stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Fulfill(commandContext(), args[0])
	},
}

var orderStartCmd = &cobra.Command{
	Use:   "start [order]",
	Short: "Start production work, consuming input materials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Start(commandContext(), args[0])
	},
}

var orderCompleteCmd = &cobra.Command{
	Use:   "complete [order]",
	Short: "Complete production work, crediting the output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Complete(commandContext(), args[0])
	},
}

var orderHaltCmd = &cobra.Command{
	Use:   "halt [order] [reason]...",
	Short: "Halt in-progress work",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason := strings.Join(args[1:], " ")
		return wire.OrderAdapter().Halt(commandContext(), args[0], reason)
	},
}

var orderResumeCmd = &cobra.Command{
	Use:   "resume [order]",
	Short: "Resume halted work",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().Resume(commandContext(), args[0])
	},
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel [order]",
	Short: "Cancel an open order, reversing any stock it moved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return wire.OrderAdapter().Cancel(commandContext(), args[0], reason)
	},
}

var orderDownstreamCmd = &cobra.Command{
	Use:   "downstream [order]",
	Short: "Raise downstream orders for the order's shortfalls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.OrderAdapter().CreateDownstream(commandContext(), args[0])
	},
}

// parseLineArgs turns trailing "item-id qty" pairs into line requests.
func parseLineArgs(args []string) ([]primary.LineRequest, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("expected item-id and quantity pairs, got %d arguments", len(args))
	}

	lines := make([]primary.LineRequest, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		qty, err := strconv.ParseInt(args[i+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q for item %s", args[i+1], args[i])
		}
		lines = append(lines, primary.LineRequest{ItemID: args[i], Quantity: qty})
	}
	return lines, nil
}

func init() {
	orderCreateCmd.Flags().StringP("kind", "k", "customer", "Order kind (customer, final_assembly, warehouse, assembly, production, supply)")
	orderCreateCmd.Flags().StringP("station", "s", "", "Requesting station (defaults to the kind's home station)")
	orderCreateCmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high, urgent)")
	orderCreateCmd.Flags().String("note", "", "Free-form note")

	orderListCmd.Flags().StringP("kind", "k", "", "Filter by kind")
	orderListCmd.Flags().String("status", "", "Filter by status")
	orderListCmd.Flags().StringP("station", "s", "", "Filter by station")
	orderListCmd.Flags().Bool("open", false, "Only orders that are not completed, cancelled or rejected")
	orderListCmd.Flags().IntP("limit", "n", 0, "Maximum orders to show")

	orderCancelCmd.Flags().StringP("reason", "r", "", "Why the order is cancelled")

	orderCmd.AddCommand(orderCreateCmd)
	orderCmd.AddCommand(orderListCmd)
	orderCmd.AddCommand(orderShowCmd)
	orderCmd.AddCommand(orderPlanCmd)
	orderCmd.AddCommand(orderConfirmCmd)
	orderCmd.AddCommand(orderFulfillCmd)
	orderCmd.AddCommand(orderStartCmd)
	orderCmd.AddCommand(orderCompleteCmd)
	orderCmd.AddCommand(orderHaltCmd)
	orderCmd.AddCommand(orderResumeCmd)
	orderCmd.AddCommand(orderCancelCmd)
	orderCmd.AddCommand(orderDownstreamCmd)
}

// OrderCmd returns the order command
func OrderCmd() *cobra.Command {
	return orderCmd
}
