package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage queued booking reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rehydrate",
		Short: "Enqueue missing reminders for every confirmed booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			confirmed := a.bookings.ConfirmedBookings(ctx)
			n := a.reminders.Rehydrate(ctx, confirmed)
			fmt.Printf("rehydrated reminders for %d of %d confirmed bookings\n", n, len(confirmed))
			return nil
		},
	})
	return cmd
}
