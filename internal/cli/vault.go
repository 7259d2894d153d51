package cli

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/vault"
)

// VaultOptions holds flags for deposit, withdraw and approve.
type VaultOptions struct {
	*RootOptions
	Delegate   string
	PrivateKey string
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VaultOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Lock tokens in the locking vault",
		Long: `Deposit tokens into the locking vault.

The delegate defaults to the account's current vault delegate. A first
deposit needs --delegate. The token allowance must cover the amount; see
"council approve".

Example:
  council deposit 250.5 --delegate 0xAb58...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVaultAction(opts, cmd, func(ctx context.Context, e *env, v *vault.Vault, account common.Address) (*chain.Receipt, error) {
				del, err := depositDelegate(ctx, e, account, opts.Delegate)
				if err != nil {
					return nil, err
				}
				return v.Deposit(ctx, args[0], del)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Delegate, "delegate", "", "delegate for the deposit")
	addKeyFlag(cmd, &opts.PrivateKey)
	return cmd
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VaultOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw tokens from the locking vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVaultAction(opts, cmd, func(ctx context.Context, _ *env, v *vault.Vault, _ common.Address) (*chain.Receipt, error) {
				return v.Withdraw(ctx, args[0])
			})
		},
	}

	addKeyFlag(cmd, &opts.PrivateKey)
	return cmd
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VaultOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "approve [amount]",
		Short: "Allow the locking vault to spend tokens",
		Long: `Approve the locking vault as a token spender. Without an amount the
allowance is unlimited.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amount *big.Int
			if len(args) == 1 {
				wei, err := eligibility.ParseAmount(args[0])
				if err != nil {
					return fail("invalid amount", err)
				}
				amount = wei
			}
			return runVaultAction(opts, cmd, func(ctx context.Context, _ *env, v *vault.Vault, _ common.Address) (*chain.Receipt, error) {
				return v.Approve(ctx, amount)
			})
		},
	}

	addKeyFlag(cmd, &opts.PrivateKey)
	return cmd
}

type vaultAction func(ctx context.Context, e *env, v *vault.Vault, account common.Address) (*chain.Receipt, error)

func runVaultAction(opts *VaultOptions, cmd *cobra.Command, action vaultAction) error {
	e := newEnv(opts.RootOptions)
	defer e.close()
	ctx := commandContext(cmd)

	sub, err := e.submitter(ctx, opts.PrivateKey)
	if err != nil {
		return err
	}
	v := vault.New(e.reader, sub, e.cfg.ChainContracts())

	receipt, err := action(ctx, e, v, sub.From())
	if err != nil {
		return fail("vault action failed", err)
	}

	e.settle()
	p, err := v.Portfolio(ctx, sub.From())
	if err != nil {
		return fail("failed to read balances", err)
	}
	return NewFormatter(cmd, opts.RootOptions).Success(newPortfolioView(p, receipt))
}

// depositDelegate resolves the delegate for a deposit: the flag when set,
// otherwise the account's current vault delegate.
func depositDelegate(ctx context.Context, e *env, account common.Address, input string) (common.Address, error) {
	if input != "" {
		return delegate.ValidateAddress(input)
	}
	d, err := e.reader.Deposits(ctx, account)
	if err != nil {
		return common.Address{}, err
	}
	return d.Delegate, nil
}
