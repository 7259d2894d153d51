package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/governance"
)

// NewDelegateCommand creates the delegate command.
func NewDelegateCommand(rootOpts *RootOptions) *cobra.Command {
	var privateKey string

	cmd := &cobra.Command{
		Use:   "delegate <address>",
		Short: "Change the vault delegate",
		Long: `Move the signing account's vault voting power to a new delegate.

Example:
  council delegate 0xAb58...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(rootOpts)
			defer e.close()
			ctx := commandContext(cmd)

			sub, err := e.submitter(ctx, privateKey)
			if err != nil {
				return err
			}
			registry, err := e.cfg.Registry()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid delegate registry", Err: err, CodeName: CodeConfig}
			}

			receipt, err := delegate.NewChanger(sub, e.cfg.ChainContracts()).ChangeDelegation(ctx, args[0])
			if err != nil {
				return fail("delegation failed", err)
			}
			return NewFormatter(cmd, rootOpts).Success(newDelegationView(registry, args[0], receipt))
		},
	}

	addKeyFlag(cmd, &privateKey)
	return cmd
}

// NewDelegatorsCommand creates the delegators command.
func NewDelegatorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delegators",
		Short: "List accounts that recently changed delegation",
		Long: `List the accounts with VoteChange events on the locking and vesting
vaults since recentDelegatorsFromBlock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(rootOpts)
			defer e.close()
			ctx := commandContext(cmd)

			if _, err := e.dial(ctx); err != nil {
				return err
			}
			from := e.cfg.RecentDelegatorsFromBlock
			addrs, err := chain.RecentDelegators(ctx, e.client, e.vaults(), from)
			if err != nil {
				return fail("failed to read delegation events", err)
			}

			view := DelegatorsView{FromBlock: from, Delegators: make([]string, len(addrs)), names: map[string]string{}}
			registry, regErr := e.cfg.Registry()
			for i, a := range addrs {
				view.Delegators[i] = a.Hex()
				if regErr != nil {
					continue
				}
				if d, ok := registry.Lookup(a); ok {
					view.names[a.Hex()] = d.Name
				}
			}
			return NewFormatter(cmd, rootOpts).Success(view)
		},
	}
}

// NewProposalsCommand creates the proposals command.
func NewProposalsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "proposals",
		Short: "List open and past proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(rootOpts)
			defer e.close()
			ctx := commandContext(cmd)

			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			proposals, err := cfg.GovernanceProposals()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid proposals", Err: err, CodeName: CodeConfig}
			}
			block, err := e.blockNumber(ctx)
			if err != nil {
				return err
			}

			open, past := governance.Partition(proposals, block)
			view := ProposalsView{
				Block: block,
				Open:  make([]ProposalView, 0, len(open)),
				Past:  make([]ProposalView, 0, len(past)),
			}
			for _, p := range open {
				view.Open = append(view.Open, newProposalView(p, block))
			}
			for _, p := range past {
				view.Past = append(view.Past, newProposalView(p, block))
			}
			return NewFormatter(cmd, rootOpts).Success(view)
		},
	}
}

// VoteView is a cast ballot.
type VoteView struct {
	Proposal uint64      `json:"proposal"`
	Ballot   string      `json:"ballot"`
	Power    string      `json:"power"`
	Receipt  ReceiptView `json:"receipt"`
}

func (v VoteView) String() string {
	return fmt.Sprintf("Voted %s on #%d with %s\n%s", v.Ballot, v.Proposal, v.Power, v.Receipt)
}

// NewVoteCommand creates the vote command.
func NewVoteCommand(rootOpts *RootOptions) *cobra.Command {
	var privateKey string

	cmd := &cobra.Command{
		Use:   "vote <proposal-id> <yes|no|abstain>",
		Short: "Vote on an open proposal",
		Long: `Cast a ballot with the signing account's voting power at the
proposal's start block.

Example:
  council vote 3 yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(rootOpts)
			defer e.close()
			ctx := commandContext(cmd)

			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid proposal id", Err: err, CodeName: CodeInput}
			}
			ballot, err := governance.ParseBallot(args[1])
			if err != nil {
				return fail("invalid ballot", err)
			}
			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			proposals, err := cfg.GovernanceProposals()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid proposals", Err: err, CodeName: CodeConfig}
			}
			var proposal *governance.Proposal
			for i := range proposals {
				if proposals[i].ID == id {
					proposal = &proposals[i]
					break
				}
			}
			if proposal == nil {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("unknown proposal %d", id), CodeName: CodeInput}
			}

			sub, err := e.submitter(ctx, privateKey)
			if err != nil {
				return err
			}
			block, err := e.blockNumber(ctx)
			if err != nil {
				return err
			}
			voter := governance.NewVoter(e.reader, sub, cfg.ChainContracts())
			power, err := voter.Power(ctx, *proposal)
			if err != nil {
				return fail("failed to read voting power", err)
			}
			receipt, err := voter.Vote(ctx, *proposal, block, ballot)
			if err != nil {
				return fail("vote failed", err)
			}
			return NewFormatter(cmd, rootOpts).Success(VoteView{
				Proposal: id,
				Ballot:   ballot.String(),
				Power:    power.String(),
				Receipt:  newReceiptView(receipt),
			})
		},
	}

	addKeyFlag(cmd, &privateKey)
	return cmd
}
