package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consultbot/utils"

	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove calendar events of cancelled or unknown bookings once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.bookings.Reconcile(ctx, grace)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			fmt.Printf("deleted %d cancelled and %d orphaned events, %d bookings missing their event\n",
				report.DeletedCancelled, report.DeletedOrphans, report.MissingRemote)
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", utils.OrphanGracePeriod, "minimum age of an unlinked event before it is deleted")
	return cmd
}
