package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"solana-stake-desk/internal/domain"
)

func historyCmd() *cobra.Command {
	var (
		pool  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled operations for the connected wallet or a pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := desk(cmd)
			if err != nil {
				return err
			}

			var records []*domain.OperationRecord
			switch {
			case pool != "":
				records, err = a.stores.operations.ListByPool(cmd.Context(), pool, limit)
			case a.walletKey != "":
				records, err = a.stores.operations.ListByWallet(cmd.Context(), a.walletKey, limit)
			default:
				return errors.New("no wallet connected; pass --pool")
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tKIND\tSTATUS\tAMOUNT\tNET\tCLASS\tSIGNATURE")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					time.UnixMilli(r.StartedAt).UTC().Format(time.RFC3339),
					r.Kind, r.Status, deref(r.Amount), deref(r.NetOutput),
					deref(r.ErrorClass), deref(r.Signature))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "list operations on this pool instead of the wallet")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records (0 for all)")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
