package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/governance"
	"github.com/roach88/council/internal/vault"
)

// ReceiptView is a mined transaction.
type ReceiptView struct {
	Method      string `json:"method"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

func newReceiptView(r *chain.Receipt) ReceiptView {
	return ReceiptView{
		Method:      r.Method,
		TxHash:      r.TxHash.Hex(),
		BlockNumber: r.BlockNumber,
		GasUsed:     r.GasUsed,
	}
}

func (v ReceiptView) String() string {
	return fmt.Sprintf("%s mined in block %d (%s, gas %d)", v.Method, v.BlockNumber, v.TxHash, v.GasUsed)
}

// ClaimStateView is an account's airdrop entitlement and balances.
// Amounts are plain decimal strings.
type ClaimStateView struct {
	Address        string `json:"address"`
	Eligible       bool   `json:"eligible"`
	TotalGranted   string `json:"total_granted"`
	AlreadyClaimed string `json:"already_claimed"`
	Unclaimed      string `json:"unclaimed"`
	Deposited      string `json:"deposited"`
	WalletBalance  string `json:"wallet_balance"`

	state eligibility.ClaimState
}

func newClaimStateView(s eligibility.ClaimState) ClaimStateView {
	return ClaimStateView{
		Address:        s.Address.Hex(),
		Eligible:       s.Eligibility != nil,
		TotalGranted:   s.TotalGranted.String(),
		AlreadyClaimed: s.AlreadyClaimed.String(),
		Unclaimed:      s.Unclaimed().String(),
		Deposited:      s.Deposited.String(),
		WalletBalance:  s.WalletBalance.String(),
		state:          s,
	}
}

func (v ClaimStateView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Account:         %s\n", v.Address)
	if !v.Eligible {
		fmt.Fprintf(&b, "Not eligible for the airdrop\n")
	}
	fmt.Fprintf(&b, "Granted:         %s\n", eligibility.FormatAmount(v.state.TotalGranted))
	fmt.Fprintf(&b, "Already claimed: %s\n", eligibility.FormatAmount(v.state.AlreadyClaimed))
	fmt.Fprintf(&b, "Unclaimed:       %s\n", eligibility.FormatAmount(v.state.Unclaimed()))
	fmt.Fprintf(&b, "Deposited:       %s\n", eligibility.FormatAmount(v.state.Deposited))
	fmt.Fprintf(&b, "Wallet:          %s", eligibility.FormatAmount(v.state.WalletBalance))
	return b.String()
}

// AirdropView is the position of an airdrop walk.
type AirdropView struct {
	Phase     string            `json:"phase"`
	Indicator airdrop.Indicator `json:"indicator"`
	State     *ClaimStateView   `json:"state,omitempty"`
	Delegate  string            `json:"delegate,omitempty"`
	Receipt   *ReceiptView      `json:"receipt,omitempty"`
}

func newAirdropView(f *airdrop.Flow, state *eligibility.ClaimState, del string) AirdropView {
	v := AirdropView{
		Phase:     f.Phase().String(),
		Indicator: f.Indicator(),
		Delegate:  del,
	}
	if state != nil {
		sv := newClaimStateView(*state)
		v.State = &sv
	}
	return v
}

func (v AirdropView) String() string {
	var b strings.Builder
	if v.State != nil {
		fmt.Fprintln(&b, v.State.String())
	}
	fmt.Fprintf(&b, "Phase: %s\n", v.Phase)
	fmt.Fprintf(&b, "  [%s] %s\n", v.Indicator.ConnectWallet, airdrop.StageConnectWallet)
	fmt.Fprintf(&b, "  [%s] %s\n", v.Indicator.Delegate, airdrop.StageDelegate)
	fmt.Fprintf(&b, "  [%s] %s\n", v.Indicator.ClaimAndDelegate, airdrop.StageClaimAndDelegate)
	if v.Delegate != "" {
		fmt.Fprintf(&b, "Delegate: %s\n", v.Delegate)
	}
	if v.Receipt != nil {
		fmt.Fprintln(&b, v.Receipt.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

// PortfolioView is wallet and vault balances after a vault action.
type PortfolioView struct {
	Wallet    string       `json:"wallet"`
	Vault     string       `json:"vault"`
	Allowance string       `json:"allowance"`
	Receipt   *ReceiptView `json:"receipt,omitempty"`

	portfolio vault.Portfolio
}

func newPortfolioView(p vault.Portfolio, r *chain.Receipt) PortfolioView {
	v := PortfolioView{
		Wallet:    p.Wallet.String(),
		Vault:     p.Vault.String(),
		Allowance: p.Allowance.String(),
		portfolio: p,
	}
	if r != nil {
		rv := newReceiptView(r)
		v.Receipt = &rv
	}
	return v
}

func (v PortfolioView) String() string {
	var b strings.Builder
	if v.Receipt != nil {
		fmt.Fprintln(&b, v.Receipt.String())
	}
	fmt.Fprintf(&b, "Wallet: %s\n", eligibility.FormatAmount(v.portfolio.Wallet))
	fmt.Fprintf(&b, "Vault:  %s", eligibility.FormatAmount(v.portfolio.Vault))
	return b.String()
}

// ProposalView is a proposal and its status at the current block.
type ProposalView struct {
	ID         uint64 `json:"id"`
	Title      string `json:"title"`
	StartBlock uint64 `json:"start_block"`
	EndBlock   uint64 `json:"end_block"`
	Quorum     string `json:"quorum"`
	Status     string `json:"status"`
}

func newProposalView(p governance.Proposal, block uint64) ProposalView {
	return ProposalView{
		ID:         p.ID,
		Title:      p.Title,
		StartBlock: p.StartBlock,
		EndBlock:   p.EndBlock,
		Quorum:     p.Quorum.String(),
		Status:     string(p.Status(block)),
	}
}

// ProposalsView lists proposals split into open and past at Block.
type ProposalsView struct {
	Block uint64         `json:"block"`
	Open  []ProposalView `json:"open"`
	Past  []ProposalView `json:"past"`
}

func (v ProposalsView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Block %d\n", v.Block)
	section := func(name string, ps []ProposalView) {
		fmt.Fprintf(&b, "%s proposals (%d)\n", name, len(ps))
		for _, p := range ps {
			fmt.Fprintf(&b, "  #%d %s [%s] blocks %d-%d\n", p.ID, p.Title, p.Status, p.StartBlock, p.EndBlock)
		}
	}
	section("Open", v.Open)
	section("Past", v.Past)
	return strings.TrimRight(b.String(), "\n")
}

// DelegatorsView is the set of accounts that recently changed delegation.
type DelegatorsView struct {
	FromBlock  uint64   `json:"from_block"`
	Delegators []string `json:"delegators"`
	names      map[string]string
}

func (v DelegatorsView) String() string {
	if len(v.Delegators) == 0 {
		return fmt.Sprintf("No delegation changes since block %d", v.FromBlock)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d delegators since block %d\n", len(v.Delegators), v.FromBlock)
	for _, d := range v.Delegators {
		if name := v.names[d]; name != "" {
			fmt.Fprintf(&b, "  %s (%s)\n", d, name)
			continue
		}
		fmt.Fprintf(&b, "  %s\n", d)
	}
	return strings.TrimRight(b.String(), "\n")
}

// DelegationView is a delegation change.
type DelegationView struct {
	Delegate string      `json:"delegate"`
	Name     string      `json:"name,omitempty"`
	Receipt  ReceiptView `json:"receipt"`
}

func newDelegationView(reg *delegate.Registry, input string, r *chain.Receipt) DelegationView {
	v := DelegationView{Delegate: input, Receipt: newReceiptView(r)}
	if addr, err := delegate.ValidateAddress(input); err == nil {
		v.Delegate = addr.Hex()
		if reg != nil {
			if d, ok := reg.Lookup(addr); ok {
				v.Name = d.Name
			}
		}
	}
	return v
}

func (v DelegationView) String() string {
	who := v.Delegate
	if v.Name != "" {
		who = fmt.Sprintf("%s (%s)", v.Name, v.Delegate)
	}
	return fmt.Sprintf("Delegated to %s\n%s", who, v.Receipt)
}
