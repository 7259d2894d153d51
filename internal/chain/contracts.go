// Package chain reads governance contract state, submits transactions and
// publishes explicit invalidation events when state changes.
package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contracts holds the deployed governance contract addresses.
type Contracts struct {
	ElementToken common.Address
	LockingVault common.Address
	VestingVault common.Address
	Airdrop      common.Address
	CoreVoting   common.Address
}

const erc20JSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const lockingVaultJSON = `[
  {"type":"function","name":"deposits","stateMutability":"view","inputs":[{"name":"who","type":"address"}],"outputs":[{"name":"","type":"address"},{"name":"","type":"uint96"}]},
  {"type":"function","name":"queryVotePowerView","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"blockNumber","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"fundedAccount","type":"address"},{"name":"amount","type":"uint256"},{"name":"firstDelegation","type":"address"}],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"changeDelegation","stateMutability":"nonpayable","inputs":[{"name":"newDelegate","type":"address"}],"outputs":[]},
  {"type":"event","name":"VoteChange","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"int256","indexed":false}]}
]`

const airdropJSON = `[
  {"type":"function","name":"claimed","stateMutability":"view","inputs":[{"name":"who","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"totalGrant","type":"uint256"},{"name":"merkleProof","type":"bytes32[]"},{"name":"destination","type":"address"}],"outputs":[]},
  {"type":"function","name":"claimAndDelegate","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"delegate","type":"address"},{"name":"totalGrant","type":"uint256"},{"name":"merkleProof","type":"bytes32[]"},{"name":"destination","type":"address"}],"outputs":[]}
]`

const coreVotingJSON = `[
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"votingVaults","type":"address[]"},{"name":"extraVaultData","type":"bytes[]"},{"name":"proposalId","type":"uint256"},{"name":"ballot","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// Parsed contract ABIs.
var (
	ERC20ABI        = mustParse(erc20JSON)
	LockingVaultABI = mustParse(lockingVaultJSON)
	AirdropABI      = mustParse(airdropJSON)
	CoreVotingABI   = mustParse(coreVotingJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("chain: invalid abi: " + err.Error())
	}
	return parsed
}
