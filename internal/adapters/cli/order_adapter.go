package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/brickline/internal/ports/primary"
)

// OrderAdapter is a thin adapter that translates CLI operations to
// OrderService calls.
type OrderAdapter struct {
	service primary.OrderService
	out     io.Writer
}

// NewOrderAdapter creates a new OrderAdapter with the given service.
func NewOrderAdapter(service primary.OrderService, out io.Writer) *OrderAdapter {
	return &OrderAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new order.
func (a *OrderAdapter) Create(ctx context.Context, req primary.CreateOrderRequest) error {
	order, err := a.service.CreateOrder(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created %s order %s at %s\n", order.Kind, order.Number, order.StationName)
	for _, line := range order.Lines {
		fmt.Fprintf(a.out, "  %dx %s  %s\n", line.Quantity, line.ItemID, line.ItemName)
	}
	fmt.Fprintf(a.out, "Next: brickline order confirm %s\n", order.Number)
	return nil
}

// List prints orders with optional filters.
func (a *OrderAdapter) List(ctx context.Context, filters primary.OrderListFilters) error {
	orders, err := a.service.ListOrders(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-8s %-15s %-20s %-18s %-8s %s\n", "NUMBER", "KIND", "STATUS", "STATION", "PRIO", "SOURCE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────")
	for _, o := range orders {
		fmt.Fprintf(a.out, "%-8s %-15s %-20s %-18s %-8s %s\n", o.Number, o.Kind, o.Status, o.StationName, o.Priority, o.SourceNumber)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Show prints one order in full.
func (a *OrderAdapter) Show(ctx context.Context, ref string) error {
	order, err := a.service.GetOrder(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nOrder:    %s (%s)\n", order.Number, order.ID)
	fmt.Fprintf(a.out, "Kind:     %s\n", order.Kind)
	fmt.Fprintf(a.out, "Status:   %s\n", order.Status)
	if order.Scenario != "" {
		fmt.Fprintf(a.out, "Scenario: %s\n", order.Scenario)
	}
	fmt.Fprintf(a.out, "Station:  %s\n", order.StationName)
	fmt.Fprintf(a.out, "Priority: %s\n", order.Priority)
	if order.RequestedBy != "" {
		fmt.Fprintf(a.out, "Requested by: %s\n", order.RequestedBy)
	}
	if order.SourceNumber != "" {
		fmt.Fprintf(a.out, "Source:   %s\n", order.SourceNumber)
	}
	if order.HaltReason != "" {
		fmt.Fprintf(a.out, "Halted:   %s\n", order.HaltReason)
	}
	if order.CancelReason != "" {
		fmt.Fprintf(a.out, "Cancelled: %s\n", order.CancelReason)
	}
	if order.Note != "" {
		fmt.Fprintf(a.out, "Note:     %s\n", order.Note)
	}
	fmt.Fprintf(a.out, "Created:  %s\n", order.CreatedAt)
	if order.ConfirmedAt != "" {
		fmt.Fprintf(a.out, "Confirmed: %s\n", order.ConfirmedAt)
	}
	if order.StartedAt != "" {
		fmt.Fprintf(a.out, "Started:  %s\n", order.StartedAt)
	}
	if order.CompletedAt != "" {
		fmt.Fprintf(a.out, "Completed: %s\n", order.CompletedAt)
	}

	fmt.Fprintln(a.out, "\nLines:")
	for _, line := range order.Lines {
		fmt.Fprintf(a.out, "  %dx %s  %s (%d fulfilled)\n", line.Quantity, line.ItemID, line.ItemName, line.Fulfilled)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Plan previews the netting result for an order without touching it.
func (a *OrderAdapter) Plan(ctx context.Context, ref string) error {
	view, err := a.service.Plan(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nScenario: %s\n", view.Scenario)
	if len(view.Nodes) > 0 {
		fmt.Fprintln(a.out)
		for i := range view.Nodes {
			a.printPlanNode(&view.Nodes[i], 0)
		}
	}
	a.printNext(view.AllowedCommands, ref)
	fmt.Fprintln(a.out)
	return nil
}

func (a *OrderAdapter) printPlanNode(node *primary.PlanNode, depth int) {
	indent := strings.Repeat("  ", depth)
	covered := ""
	if len(node.Coverage) > 0 {
		var sources []string
		for _, c := range node.Coverage {
			sources = append(sources, fmt.Sprintf("%d from %s", c.Quantity, c.StationName))
		}
		covered = " (" + strings.Join(sources, ", ") + ")"
	}
	fmt.Fprintf(a.out, "%s%s  need %d, have %d, short %d%s\n", indent, node.ItemID, node.Required, node.Covered, node.Net, covered)
	for i := range node.Children {
		a.printPlanNode(&node.Children[i], depth+1)
	}
}

// Confirm confirms an order and routes it to a scenario.
func (a *OrderAdapter) Confirm(ctx context.Context, ref string) error {
	result, err := a.service.Confirm(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s confirmed, routed to %s\n", result.Order.Number, result.Scenario)
	a.printNext(result.AllowedCommands, result.Order.Number)
	return nil
}

// Fulfill delivers an order from stock.
func (a *OrderAdapter) Fulfill(ctx context.Context, ref string) error {
	result, err := a.service.Fulfill(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s fulfilled\n", result.Order.Number)
	a.printNotified(result.Notified)
	return nil
}

// Start begins production work on an order.
func (a *OrderAdapter) Start(ctx context.Context, ref string) error {
	result, err := a.service.Start(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s started, input materials consumed\n", result.Order.Number)
	return nil
}

// Complete finishes production work and credits the output.
func (a *OrderAdapter) Complete(ctx context.Context, ref string) error {
	result, err := a.service.Complete(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s completed, output credited\n", result.Order.Number)
	a.printNotified(result.Notified)
	return nil
}

// Halt pauses an in-progress order.
func (a *OrderAdapter) Halt(ctx context.Context, ref, reason string) error {
	result, err := a.service.Halt(ctx, ref, reason)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s halted: %s\n", result.Order.Number, reason)
	return nil
}

// Resume continues a halted order.
func (a *OrderAdapter) Resume(ctx context.Context, ref string) error {
	result, err := a.service.Resume(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s resumed\n", result.Order.Number)
	return nil
}

// Cancel cancels an order and compensates any applied movements.
func (a *OrderAdapter) Cancel(ctx context.Context, ref, reason string) error {
	result, err := a.service.Cancel(ctx, ref, reason)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Order %s cancelled\n", result.Order.Number)
	return nil
}

// CreateDownstream raises orders for whatever the order is short of.
func (a *OrderAdapter) CreateDownstream(ctx context.Context, ref string) error {
	result, err := a.service.CreateDownstream(ctx, ref)
	if err != nil {
		return err
	}

	if len(result.Created) == 0 {
		fmt.Fprintf(a.out, "✓ Order %s: downstream orders already open, nothing new raised\n", result.Order.Number)
		return nil
	}

	fmt.Fprintf(a.out, "✓ Order %s is waiting on %d downstream order(s):\n", result.Order.Number, len(result.Created))
	for _, created := range result.Created {
		line := created.Lines[0]
		fmt.Fprintf(a.out, "  %s  %s at %s  %dx %s\n", created.Number, created.Kind, created.StationName, line.Quantity, line.ItemID)
	}
	return nil
}

func (a *OrderAdapter) printNext(commands []string, ref string) {
	if len(commands) == 0 {
		return
	}
	var steps []string
	for _, c := range commands {
		steps = append(steps, fmt.Sprintf("brickline order %s %s", cliVerb(c), ref))
	}
	fmt.Fprintf(a.out, "Next: %s\n", strings.Join(steps, " | "))
}

// cliVerb maps a lifecycle command to its CLI subcommand name.
func cliVerb(command string) string {
	if command == "create_downstream" {
		return "downstream"
	}
	return command
}

func (a *OrderAdapter) printNotified(numbers []string) {
	if len(numbers) == 0 {
		return
	}
	fmt.Fprintf(a.out, "  woke waiting order(s): %s\n", strings.Join(numbers, ", "))
}
