package cli

import (
	"fmt"

	"crown_back_end/internal/models"
	"crown_back_end/internal/orders"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newOrdersCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List orders and move them through their lifecycle",
	}
	cmd.AddCommand(
		ordersListCommand(s),
		ordersGetCommand(s),
		ordersStatusCommand(s),
		ordersPaymentCommand(s),
		ordersStatsCommand(s),
	)
	return cmd
}

func ordersListCommand(s *state) *cobra.Command {
	var (
		status      string
		limit, page int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := s.app.Orders.ListAll(cmd.Context(), models.OrderStatus(status), limit, page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only orders in this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "orders per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	return cmd
}

func ordersGetCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "get ORDER_ID",
		Short: "Show one order with its items and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := s.app.Orders.Get(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}
}

func ordersStatusCommand(s *state) *cobra.Command {
	var by, notes string
	cmd := &cobra.Command{
		Use:   "status ORDER_ID STATUS",
		Short: "Change an order's status and email the customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd := orders.StatusUpdate{Status: models.OrderStatus(args[1]), UpdatedBy: by}
			if notes != "" {
				upd.Notes = &notes
			}
			o, err := s.app.Orders.UpdateStatus(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is now %s\n", o.OrderID, o.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "shopctl", "who made the change")
	cmd.Flags().StringVar(&notes, "notes", "", "note for the customer")
	return cmd
}

func ordersPaymentCommand(s *state) *cobra.Command {
	var by, notes string
	cmd := &cobra.Command{
		Use:   "payment ORDER_ID AMOUNT METHOD",
		Short: "Record a payment received outside the shop",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			rec := orders.PaymentRecord{Amount: amount, Method: args[2], RecordedBy: by}
			if notes != "" {
				rec.Notes = &notes
			}
			o, err := s.app.Orders.RecordPayment(cmd.Context(), args[0], rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "💰 %s paid %s via %s\n", o.OrderID, o.PaymentAmount.StringFixed(2), args[2])
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "shopctl", "who recorded the payment")
	cmd.Flags().StringVar(&notes, "notes", "", "override the history note")
	return cmd
}

func ordersStatsCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := s.app.Orders.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
