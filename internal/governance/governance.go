// Package governance models proposals and casts votes through the core
// voting contract.
package governance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/eligibility"
)

// Status is a proposal's voting window state at a block.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
)

// Proposal is a governance proposal with its voting window in blocks.
type Proposal struct {
	ID         uint64
	Title      string
	StartBlock uint64
	EndBlock   uint64
	Quorum     decimal.Decimal
}

// Status returns the proposal state at block. Both window ends are
// inclusive.
func (p Proposal) Status(block uint64) Status {
	switch {
	case block < p.StartBlock:
		return StatusUpcoming
	case block <= p.EndBlock:
		return StatusActive
	default:
		return StatusClosed
	}
}

// Partition splits proposals into active-or-upcoming and closed, each
// ordered by descending id.
func Partition(proposals []Proposal, block uint64) (open, past []Proposal) {
	for _, p := range proposals {
		if p.Status(block) == StatusClosed {
			past = append(past, p)
		} else {
			open = append(open, p)
		}
	}
	byIDDesc := func(s []Proposal) {
		sort.Slice(s, func(i, j int) bool { return s[i].ID > s[j].ID })
	}
	byIDDesc(open)
	byIDDesc(past)
	return open, past
}

// Ballot is a vote choice, encoded as the contract enum.
type Ballot uint8

const (
	BallotYes Ballot = iota
	BallotNo
	BallotAbstain
)

func (b Ballot) String() string {
	switch b {
	case BallotYes:
		return "yes"
	case BallotNo:
		return "no"
	case BallotAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("ballot(%d)", uint8(b))
	}
}

// ParseBallot parses "yes", "no" or "abstain".
func ParseBallot(s string) (Ballot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return BallotYes, nil
	case "no":
		return BallotNo, nil
	case "abstain", "maybe":
		return BallotAbstain, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidBallot, s)
	}
}

var (
	ErrProposalNotActive = errors.New("proposal is not open for voting")
	ErrNoVotingPower     = errors.New("no voting power at proposal start")
	ErrInvalidBallot     = errors.New("invalid ballot")
)

// CheckVote validates a vote before submission.
func CheckVote(p Proposal, block uint64, power decimal.Decimal, ballot Ballot) error {
	if ballot > BallotAbstain {
		return fmt.Errorf("%w: %d", ErrInvalidBallot, ballot)
	}
	if st := p.Status(block); st != StatusActive {
		return fmt.Errorf("proposal %d is %s: %w", p.ID, st, ErrProposalNotActive)
	}
	if !power.IsPositive() {
		return ErrNoVotingPower
	}
	return nil
}

// PowerReader reads historical voting power.
type PowerReader interface {
	VotingPower(ctx context.Context, account common.Address, block uint64) (*big.Int, error)
}

// Voter casts votes with the submitter's account.
type Voter struct {
	power     PowerReader
	submitter chain.Submitter
	contracts chain.Contracts
}

// NewVoter creates a Voter.
func NewVoter(power PowerReader, submitter chain.Submitter, contracts chain.Contracts) *Voter {
	return &Voter{power: power, submitter: submitter, contracts: contracts}
}

// Power returns the submitter's voting power for p, measured at the
// proposal start block.
func (v *Voter) Power(ctx context.Context, p Proposal) (decimal.Decimal, error) {
	wei, err := v.power.VotingPower(ctx, v.submitter.From(), p.StartBlock)
	if err != nil {
		return decimal.Zero, err
	}
	return eligibility.FromWei(wei), nil
}

// Vote checks and submits ballot on p at the current block.
func (v *Voter) Vote(ctx context.Context, p Proposal, block uint64, ballot Ballot) (*chain.Receipt, error) {
	power, err := v.Power(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := CheckVote(p, block, power, ballot); err != nil {
		return nil, err
	}

	vaults := []common.Address{v.contracts.LockingVault}
	extra := [][]byte{{}}
	return v.submitter.Submit(ctx, chain.Call{
		Contract: v.contracts.CoreVoting,
		ABI:      chain.CoreVotingABI,
		Method:   "vote",
		Args:     []any{vaults, extra, new(big.Int).SetUint64(p.ID), uint8(ballot)},
		Invalidates: []chain.Entity{
			{Contract: v.contracts.CoreVoting},
		},
	})
}
