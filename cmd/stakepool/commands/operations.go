package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/notify"
	"solana-stake-desk/internal/ops"
)

func depositSolCmd() *cobra.Command {
	var minimum string
	cmd := &cobra.Command{
		Use:   "deposit-sol <pool> <amount>",
		Short: "Stake SOL into a pool for pool tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind: domain.OpDepositValue,
				DepositValue: &ops.DepositValueRequest{
					Pool: args[0], Amount: args[1], MinimumOutput: minimum,
				},
			})
		},
	}
	cmd.Flags().StringVar(&minimum, "min", "", "minimum pool tokens to receive")
	return cmd
}

func withdrawSolCmd() *cobra.Command {
	var minimum string
	cmd := &cobra.Command{
		Use:   "withdraw-sol <pool> <pool-tokens>",
		Short: "Burn pool tokens for SOL from the reserve",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind: domain.OpWithdrawValue,
				WithdrawValue: &ops.WithdrawValueRequest{
					Pool: args[0], Amount: args[1], MinimumOutput: minimum,
				},
			})
		},
	}
	cmd.Flags().StringVar(&minimum, "min", "", "minimum SOL to receive")
	return cmd
}

func depositStakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit-stake <pool> <stake-account> <vote-account>",
		Short: "Deposit a delegated stake account into a pool",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind: domain.OpDepositPosition,
				DepositPosition: &ops.DepositPositionRequest{
					Pool: args[0], StakeAccount: args[1], VoteAccount: args[2],
				},
			})
		},
	}
}

func withdrawStakeCmd() *cobra.Command {
	var minimum, vote string
	cmd := &cobra.Command{
		Use:   "withdraw-stake <pool> <pool-tokens>",
		Short: "Burn pool tokens for a stake account split from a validator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind: domain.OpWithdrawPosition,
				WithdrawPosition: &ops.WithdrawPositionRequest{
					Pool: args[0], Amount: args[1], VoteAccount: vote, MinimumOutput: minimum,
				},
			})
		},
	}
	cmd.Flags().StringVar(&minimum, "min", "", "minimum SOL to receive")
	cmd.Flags().StringVar(&vote, "vote", "", "withdraw from this validator (default: largest)")
	return cmd
}

func addValidatorCmd() *cobra.Command {
	var seed uint32
	cmd := &cobra.Command{
		Use:   "add-validator <pool> <vote-account>",
		Short: "Add a validator to the pool (staker only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind: domain.OpAddValidator,
				AddValidator: &ops.AddValidatorRequest{
					Pool: args[0], VoteAccount: args[1], Seed: seed,
				},
			})
		},
	}
	cmd.Flags().Uint32Var(&seed, "seed", 0, "validator stake account seed")
	return cmd
}

func removeValidatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-validator <pool> <vote-account>",
		Short: "Remove a validator from the pool (staker only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind: domain.OpRemoveValidator,
				RemoveValidator: &ops.RemoveValidatorRequest{
					Pool: args[0], VoteAccount: args[1],
				},
			})
		},
	}
}

func updatePoolCmd() *cobra.Command {
	var noMerge bool
	cmd := &cobra.Command{
		Use:   "update-pool <pool>",
		Short: "Refresh validator balances and pool totals for the current epoch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, ops.Request{
				Kind:        domain.OpRefreshPool,
				RefreshPool: &ops.RefreshPoolRequest{Pool: args[0], NoMerge: noMerge},
			})
		},
	}
	cmd.Flags().BoolVar(&noMerge, "no-merge", false, "do not merge transient stake accounts")
	return cmd
}

// runOperation executes req through the journal and prints the notification it produced.
func runOperation(cmd *cobra.Command, req ops.Request) error {
	a, err := desk(cmd)
	if err != nil {
		return err
	}

	out, rec, err := a.recorder.Execute(cmd.Context(), req)
	w := cmd.OutOrStdout()
	printNotes(w, a.notes)
	if rec != nil {
		fmt.Fprintf(w, "journal: %s %s\n", rec.ID[:16], rec.Status)
	}
	if err != nil {
		return err
	}
	if out.NoOp {
		fmt.Fprintln(w, "nothing to do")
	}
	return nil
}

// printNotes drains buffered notifications.
func printNotes(w io.Writer, notes *notify.Chan) {
	for {
		select {
		case n := <-notes.C:
			fmt.Fprintf(w, "%s: %s\n", n.Title, n.Description)
		default:
			return
		}
	}
}
