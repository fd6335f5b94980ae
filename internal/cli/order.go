package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewOrderCmd создаёт группу команд для управления заказами.
func NewOrderCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage doughnut orders",
	}

	cmd.AddCommand(
		newOrderCreateCmd(clientFn, outputFn),
		newOrderShowCmd(clientFn, outputFn),
		newOrderCancelCmd(clientFn, outputFn),
		newOrderWatchCmd(clientFn, outputFn),
	)

	return cmd
}

var orderHeaders = []string{"REQUEST_ID", "FLAVOR", "STAGE", "PROGRESS", "MESSAGE", "DONE"}

func orderRow(o *OrderResponse) []string {
	msg := o.Message
	if o.ErrorMessage != "" {
		msg = o.ErrorMessage
	}
	return []string{
		o.RequestID,
		o.Flavor,
		o.Stage,
		fmt.Sprintf("%.2f", o.Progress),
		msg,
		fmt.Sprintf("%t", o.Done),
	}
}

func newOrderCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var tableID string
	var userID string
	var wait bool

	cmd := &cobra.Command{
		Use:   "create FLAVOR",
		Short: "Create a new order (chocolate or strawberry)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			payload, err := client.CreateOrder(CreateOrderRequest{
				Flavor:  args[0],
				TableID: tableID,
				UserID:  userID,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Order created: %s", payload.RequestID))

			if !wait {
				out.Print([]string{"REQUEST_ID"}, [][]string{{payload.RequestID}}, payload)
				return nil
			}

			order, err := waitForOrder(cmd.Context(), client, out, payload.RequestID)
			if err != nil {
				return err
			}

			out.Print(orderHeaders, [][]string{orderRow(order)}, order)
			return nil
		},
	}

	cmd.Flags().StringVar(&tableID, "table-id", "", "Table the order belongs to")
	cmd.Flags().StringVar(&userID, "user-id", "", "User placing the order")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll the order until it reaches a terminal stage")

	return cmd
}

// waitForOrder опрашивает заказ до терминальной фазы, печатая
// смены фаз в stderr.
func waitForOrder(ctx context.Context, client *Client, out *Output, id string) (*OrderResponse, error) {
	lastStage := ""

	for {
		order, err := client.GetOrder(id)
		if err != nil {
			return nil, err
		}

		if order.Stage != lastStage {
			lastStage = order.Stage
			out.Success(fmt.Sprintf("%s  progress=%.2f  %s", order.Stage, order.Progress, order.Message))
		}

		if order.Done {
			return order, nil
		}

		select {
		case <-ctx.Done():
			return order, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func newOrderShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show REQUEST_ID",
		Short: "Show order status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			order, err := client.GetOrder(args[0])
			if err != nil {
				return err
			}

			out.Print(orderHeaders, [][]string{orderRow(order)}, order)
			return nil
		},
	}
}

func newOrderCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel REQUEST_ID",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			payload, err := client.CancelOrder(args[0])
			if err != nil {
				return err
			}

			if payload.Canceled {
				out.Success(fmt.Sprintf("Order canceled: %s", args[0]))
			} else {
				out.Success(fmt.Sprintf("Order already finished: %s", args[0]))
			}
			return nil
		},
	}
}

func newOrderWatchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var requestID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream order events (SSE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out.Success("Watching order events (Ctrl+C to stop)")

			return client.WatchEvents(ctx, func(ev Event) bool {
				if requestID != "" && ev.RequestID != requestID {
					return true
				}
				printEvent(out, ev)
				return true
			})
		},
	}

	cmd.Flags().StringVar(&requestID, "request-id", "", "Only show events for this order")

	return cmd
}

// printEvent печатает одно событие потока.
func printEvent(out *Output, ev Event) {
	if out.jsonMode {
		out.JSON(ev)
		return
	}

	switch ev.Type {
	case "status_update":
		out.Line(fmt.Sprintf("%-14s %s  %-13s %.2f  %s", ev.Type, ev.RequestID, ev.Stage, ev.Progress, ev.Message))
	case "completed":
		flavor := ""
		if ev.Result != nil {
			flavor = ev.Result.Flavor
		}
		out.Line(fmt.Sprintf("%-14s %s  delivered flavor=%s", ev.Type, ev.RequestID, flavor))
	default:
		out.Line(fmt.Sprintf("%-14s %s  %s", ev.Type, ev.RequestID, ev.Message))
	}
}
