package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		bookingID string
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute participation credits",
		Long: `Recompute the credits of one booking (--booking) or of every booking (--all).

A bulk recompute runs one transaction per booking and carries on past failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (bookingID == "") == !all {
				return errors.New("pass exactly one of --booking or --all")
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				if all {
					result, err := rt.Services.Booking.RecomputeAll(ctx)
					if err != nil {
						return f.Error(err)
					}
					if err := f.Success(result, func(w io.Writer) error { return RenderRecomputeAll(w, result) }); err != nil {
						return err
					}
					if result.Failed > 0 {
						return errors.New("some bookings failed to recompute")
					}
					return nil
				}

				result, err := rt.Services.Lifecycle.RecomputeForBooking(ctx, bookingID, rootOpts.Actor)
				if err != nil {
					return f.Error(err)
				}
				return f.Success(result, func(w io.Writer) error { return RenderTransition(w, result) })
			})
		},
	}
	cmd.Flags().StringVar(&bookingID, "booking", "", "booking ID")
	cmd.Flags().BoolVar(&all, "all", false, "recompute every booking")
	return cmd
}
