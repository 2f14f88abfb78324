package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/database"
)

// deliveryReader is the read side of the delivery log
type deliveryReader interface {
	GetDelivery(ctx context.Context, deliveryID string) (*database.WebhookDelivery, error)
	ListRecentDeliveries(ctx context.Context, limit int) ([]*database.WebhookDelivery, error)
}

func newDeliveriesCmd() *cobra.Command {
	var (
		limit int
		id    string
	)
	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "List recent webhook deliveries from the delivery log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			url, err := databaseURL(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			pool, err := database.NewPool(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer pool.Close()

			return showDeliveries(cmd.Context(), cmd.OutOrStdout(), database.NewWebhookDeliveryStore(pool), id, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of deliveries to list")
	cmd.Flags().StringVar(&id, "id", "", "show a single delivery by X-GitHub-Delivery ID")
	return cmd
}

// showDeliveries prints one delivery when id is set, otherwise the newest
// limit deliveries.
func showDeliveries(ctx context.Context, out io.Writer, store deliveryReader, id string, limit int) error {
	var deliveries []*database.WebhookDelivery
	if id != "" {
		d, err := store.GetDelivery(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get delivery %s: %w", id, err)
		}
		deliveries = append(deliveries, d)
	} else {
		var err error
		deliveries, err = store.ListRecentDeliveries(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list deliveries: %w", err)
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DELIVERY\tCREATED\tREPOSITORY\tISSUE\tCOMMAND\tOUTCOME\tSTATUS\tOK\tATTEMPTS\tERROR")
	for _, d := range deliveries {
		errMsg := "-"
		if d.ErrorMessage != nil {
			errMsg = *d.ErrorMessage
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%d\t%t\t%d\t%s\n",
			d.DeliveryID, d.CreatedAt.UTC().Format(time.RFC3339), d.Repository, d.IssueNumber,
			d.Command, d.Outcome, d.StatusCode, d.IsSuccess(), d.Attempts, errMsg)
	}
	return w.Flush()
}
