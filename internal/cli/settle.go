package cli

import (
	"context"
	"io"

	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// NewSettleCommand creates the settle command.
func NewSettleCommand(rootOpts *RootOptions) *cobra.Command {
	var amount, paymentMethodID, date string
	cmd := &cobra.Command{
		Use:   "settle <bookingID>",
		Short: "Mark a booking paid",
		Long: `Mark a booking paid and convert its potential credits into real ones.

Without --amount the expected proceeds are used. Settling twice is harmless.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params dto.SettleParams
			if amount != "" {
				d, err := decimal.NewFromString(amount)
				if err != nil {
					return err
				}
				params.Amount = &d
			}
			if paymentMethodID != "" {
				params.PaymentMethodID = &paymentMethodID
			}
			if date != "" {
				d, err := dto.ParseDate(date)
				if err != nil {
					return err
				}
				params.Date = &d
			}

			f := rootOpts.formatter(cmd)
			return rootOpts.withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				result, err := rt.Services.Lifecycle.SettleBooking(ctx, args[0], params, rootOpts.Actor)
				if err != nil {
					return f.Error(err)
				}
				return f.Success(result, func(w io.Writer) error { return RenderTransition(w, result) })
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "actual proceeds")
	cmd.Flags().StringVar(&paymentMethodID, "payment-method", "", "member ID of the structure receiving the proceeds")
	cmd.Flags().StringVar(&date, "date", "", "settlement date, YYYY-MM-DD (defaults to the booking date)")
	return cmd
}

// NewUnsettleCommand creates the unsettle command.
func NewUnsettleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unsettle <bookingID>",
		Short: "Undo a booking's payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				result, err := rt.Services.Lifecycle.UnsettleBooking(ctx, args[0], rootOpts.Actor)
				if err != nil {
					return f.Error(err)
				}
				return f.Success(result, func(w io.Writer) error { return RenderTransition(w, result) })
			})
		},
	}
}
