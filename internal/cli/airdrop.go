package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/eligibility"
)

// NewEligibilityCommand creates the eligibility command.
func NewEligibilityCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eligibility <address>",
		Short: "Show airdrop entitlement and balances",
		Long: `Resolve an account's airdrop entitlement from the merkle data file and
its claimed amount, vault deposit and wallet balance from the chain.

Example:
  council eligibility 0x52908400098527886E0F7030069857D2E4169EE7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(rootOpts)
			defer e.close()
			ctx := commandContext(cmd)

			resolver, err := e.resolver(ctx)
			if err != nil {
				return err
			}
			state, err := resolver.Resolve(ctx, args[0])
			if err != nil {
				return fail("failed to resolve eligibility", err)
			}
			return NewFormatter(cmd, rootOpts).Success(newClaimStateView(state))
		},
	}
}

// AirdropOptions holds flags for the airdrop and claim commands.
type AirdropOptions struct {
	*RootOptions
	Delegate   string
	PrivateKey string
}

// NewAirdropCommand creates the airdrop command.
func NewAirdropCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AirdropOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "airdrop <address>",
		Short: "Preview the claim walk for an account",
		Long: `Walk the airdrop claim flow for an account without submitting anything.

The walk stops at the delegate choice unless --delegate is given, in which
case it continues to the claim-and-delegate preview. Every transition is
recorded as a session.

Example:
  council airdrop 0x52908400098527886E0F7030069857D2E4169EE7 --delegate 0xAb58...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAirdropPreview(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Delegate, "delegate", "", "delegate address to preview")
	return cmd
}

func runAirdropPreview(opts *AirdropOptions, address string, cmd *cobra.Command) error {
	e := newEnv(opts.RootOptions)
	defer e.close()
	ctx := commandContext(cmd)

	account, err := parseAccount(address)
	if err != nil {
		return err
	}
	resolver, err := e.resolver(ctx)
	if err != nil {
		return err
	}
	mgr, err := e.manager(ctx)
	if err != nil {
		return err
	}
	flow, tracker, err := mgr.StartAirdrop(ctx, nil)
	if err != nil {
		return fail("failed to start session", err)
	}

	flow.Connect(account)
	state, err := resolver.Resolve(ctx, address)
	if err != nil {
		if !eligibility.IsUnavailable(err) {
			return fail("failed to resolve eligibility", err)
		}
		flow.SetUnavailable()
	} else {
		flow.SetEligibility(state)
	}

	walkErr := walkAirdrop(flow, opts.Delegate)
	if err := tracker.Err(); err != nil {
		return fail("failed to record session", err)
	}
	if walkErr != nil {
		return fail("airdrop walk stopped", walkErr)
	}

	var shown *eligibility.ClaimState
	if flow.Phase() != airdrop.PhaseStartClaiming {
		shown = &state
	}
	return NewFormatter(cmd, opts.RootOptions).SuccessInSession(tracker.ID(), newAirdropView(flow, shown, opts.Delegate))
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AirdropOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim the airdrop for the signing account",
		Long: `Claim the signing account's unclaimed airdrop.

With --delegate the claim walks the full flow and submits claimAndDelegate,
depositing the tokens in the locking vault with the chosen delegate. Without
it the tokens are claimed to the wallet.

Example:
  council claim --delegate 0xAb58... --private-key $KEY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Delegate, "delegate", "", "delegate for the claimed tokens")
	addKeyFlag(cmd, &opts.PrivateKey)
	return cmd
}

func runClaim(opts *AirdropOptions, cmd *cobra.Command) error {
	e := newEnv(opts.RootOptions)
	defer e.close()
	ctx := commandContext(cmd)
	out := NewFormatter(cmd, opts.RootOptions)

	sub, err := e.submitter(ctx, opts.PrivateKey)
	if err != nil {
		return err
	}
	resolver, err := e.resolver(ctx)
	if err != nil {
		return err
	}
	claimer := airdrop.NewClaimer(sub, e.cfg.ChainContracts())
	account := sub.From()

	if opts.Delegate == "" {
		state, err := resolver.Resolve(ctx, account.Hex())
		if err != nil {
			return fail("failed to resolve eligibility", err)
		}
		if !eligibility.HasUnclaimedAirdrop(state) {
			return fail("claim refused", airdrop.ErrNothingToClaim)
		}
		receipt, err := claimer.Claim(ctx, state)
		if err != nil {
			return fail("claim failed", err)
		}
		return out.Success(newReceiptView(receipt))
	}

	mgr, err := e.manager(ctx)
	if err != nil {
		return err
	}
	flow, tracker, err := mgr.StartAirdrop(ctx, claimer)
	if err != nil {
		return fail("failed to start session", err)
	}
	flow.Connect(account)
	state, err := resolver.Resolve(ctx, account.Hex())
	if err != nil {
		return fail("failed to resolve eligibility", err)
	}
	flow.SetEligibility(state)

	if err := walkAirdrop(flow, opts.Delegate); err != nil {
		return fail("airdrop walk stopped", err)
	}
	if flow.Phase() != airdrop.PhaseClaimAndDelegatePreview {
		return fail("claim refused", airdrop.ErrNothingToClaim)
	}

	receipt, err := flow.Claim(ctx)
	if err != nil {
		return fail("claim failed", err)
	}
	if err := tracker.Err(); err != nil {
		slog.Warn("claim mined but session not fully recorded", "session", tracker.ID(), "error", err)
	}
	e.settle()
	claimed, err := resolver.Resolve(ctx, account.Hex())
	if err != nil {
		slog.Warn("failed to refresh eligibility after claim", "error", err)
		claimed = state
	}

	view := newAirdropView(flow, &claimed, opts.Delegate)
	rv := newReceiptView(receipt)
	view.Receipt = &rv
	return out.SuccessInSession(tracker.ID(), view)
}

// walkAirdrop advances flow from start_claiming as far as the input
// allows: to already_claimed, to choose_delegate when no delegate is
// given, or to the claim-and-delegate preview.
func walkAirdrop(f *airdrop.Flow, delegateInput string) error {
	if err := f.Next(); err != nil {
		return err
	}
	if f.Phase() == airdrop.PhaseAlreadyClaimed {
		return nil
	}
	for f.Phase() != airdrop.PhaseChooseDelegate {
		if err := f.Next(); err != nil {
			return err
		}
	}
	if delegateInput == "" {
		return nil
	}
	if err := f.ChooseDelegate(delegateInput); err != nil {
		return err
	}
	for f.Phase() != airdrop.PhaseClaimAndDelegatePreview {
		if err := f.Next(); err != nil {
			return err
		}
	}
	return nil
}
