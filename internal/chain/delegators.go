package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogFilterer queries historical logs. *ethclient.Client satisfies it.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// RecentDelegators returns the unique accounts that emitted VoteChange as
// delegator on any of vaults since fromBlock, in first-seen order.
func RecentDelegators(ctx context.Context, filterer LogFilterer, vaults []common.Address, fromBlock uint64) ([]common.Address, error) {
	topic := LockingVaultABI.Events["VoteChange"].ID

	seen := make(map[common.Address]bool)
	var out []common.Address
	for _, vault := range vaults {
		logs, err := filterer.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(fromBlock),
			Addresses: []common.Address{vault},
			Topics:    [][]common.Hash{{topic}},
		})
		if err != nil {
			return nil, fmt.Errorf("filter VoteChange logs for %s: %w", vault.Hex(), err)
		}
		for _, l := range logs {
			if len(l.Topics) < 2 {
				continue
			}
			from := common.BytesToAddress(l.Topics[1].Bytes())
			if !seen[from] {
				seen[from] = true
				out = append(out, from)
			}
		}
	}
	return out, nil
}
