package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"solana-stake-desk/internal/derive"
	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

// poolReader serves descriptors for display. Implemented by cache.Pools.
type poolReader interface {
	Get(ctx context.Context, pool solana.PublicKey) (*domain.PoolDescriptor, bool, error)
}

// PoolView is the display form of a pool descriptor.
type PoolView struct {
	Address             string `json:"address"`
	ShareMint           string `json:"share_mint"`
	Manager             string `json:"manager"`
	Staker              string `json:"staker"`
	ValidatorList       string `json:"validator_list"`
	ReserveStake        string `json:"reserve_stake"`
	TotalLamports       uint64 `json:"total_lamports"`
	PoolTokenSupply     uint64 `json:"pool_token_supply"`
	LastUpdateEpoch     uint64 `json:"last_update_epoch"`
	SOLPerToken         string `json:"sol_per_token"`
	SolDepositFeeBps    int64  `json:"sol_deposit_fee_bps"`
	SolWithdrawFeeBps   int64  `json:"sol_withdraw_fee_bps"`
	StakeWithdrawFeeBps int64  `json:"stake_withdraw_fee_bps"`
	PermissionedDeposit bool   `json:"permissioned_deposit"`
	Cached              bool   `json:"cached"`
}

func viewOf(p *domain.PoolDescriptor, cached bool) PoolView {
	return PoolView{
		Address:             p.Address.String(),
		ShareMint:           p.ShareMint.String(),
		Manager:             p.Manager.String(),
		Staker:              p.Staker.String(),
		ValidatorList:       p.ValidatorList.String(),
		ReserveStake:        p.ReserveStake.String(),
		TotalLamports:       p.TotalLamports,
		PoolTokenSupply:     p.PoolTokenSupply,
		LastUpdateEpoch:     p.LastUpdateEpoch,
		SOLPerToken:         p.LamportsPerToken().StringFixed(9),
		SolDepositFeeBps:    p.SolDepositFee.BasisPoints(),
		SolWithdrawFeeBps:   p.SolWithdrawalFee.BasisPoints(),
		StakeWithdrawFeeBps: p.StakeWithdrawalFee.BasisPoints(),
		PermissionedDeposit: p.SolDepositAuthority != nil,
		Cached:              cached,
	}
}

// displayPool reads a descriptor for display and records a snapshot of what was shown.
func displayPool(ctx context.Context, pools poolReader, snapshots storage.PoolSnapshotStore, address string) (PoolView, error) {
	pk, err := derive.ParseAddress(address)
	if err != nil {
		return PoolView{}, err
	}
	desc, cached, err := pools.Get(ctx, pk)
	if err != nil {
		return PoolView{}, err
	}
	if snapshots != nil {
		err := snapshots.Insert(ctx, storage.SnapshotOf(desc, time.Now()))
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return PoolView{}, fmt.Errorf("record snapshot: %w", err)
		}
	}
	return viewOf(desc, cached), nil
}

func poolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect stake pools",
	}
	cmd.AddCommand(poolShowCmd(), poolSnapshotsCmd())
	return cmd
}

func poolShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <pool>",
		Short: "Display a pool descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := desk(cmd)
			if err != nil {
				return err
			}
			view, err := displayPool(cmd.Context(), a.display, a.stores.snapshots, args[0])
			if err != nil {
				return err
			}
			printPool(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func poolSnapshotsCmd() *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "snapshots <pool>",
		Short: "List recorded snapshots of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := desk(cmd)
			if err != nil {
				return err
			}
			end := time.Now()
			snaps, err := a.stores.snapshots.GetByTimeRange(cmd.Context(), args[0],
				end.Add(-since).UnixMilli(), end.UnixMilli())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OBSERVED\tEPOCH\tTOTAL LAMPORTS\tTOKEN SUPPLY")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
					time.UnixMilli(s.ObservedAt).UTC().Format(time.RFC3339),
					s.LastUpdateEpoch, s.TotalLamports, s.PoolTokenSupply)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "look-back window")
	return cmd
}

func printPool(w io.Writer, v PoolView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Pool\t%s\n", v.Address)
	fmt.Fprintf(tw, "Pool token mint\t%s\n", v.ShareMint)
	fmt.Fprintf(tw, "Manager\t%s\n", v.Manager)
	fmt.Fprintf(tw, "Staker\t%s\n", v.Staker)
	fmt.Fprintf(tw, "Total lamports\t%d\n", v.TotalLamports)
	fmt.Fprintf(tw, "Pool token supply\t%d\n", v.PoolTokenSupply)
	fmt.Fprintf(tw, "SOL per token\t%s\n", v.SOLPerToken)
	fmt.Fprintf(tw, "Last update epoch\t%d\n", v.LastUpdateEpoch)
	fmt.Fprintf(tw, "SOL deposit fee\t%d bps\n", v.SolDepositFeeBps)
	fmt.Fprintf(tw, "SOL withdrawal fee\t%d bps\n", v.SolWithdrawFeeBps)
	fmt.Fprintf(tw, "Stake withdrawal fee\t%d bps\n", v.StakeWithdrawFeeBps)
	if v.Cached {
		fmt.Fprintf(tw, "Source\tcache\n")
	}
	tw.Flush()
}
