package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes read-only contract calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Deposit is a locking vault position.
type Deposit struct {
	Delegate common.Address
	Amount   *big.Int
}

// Reader performs typed governance contract reads. With a cache attached,
// results are reused until a matching invalidation event arrives.
type Reader struct {
	caller    Caller
	contracts Contracts
	cache     *Cache
}

// NewReader creates an uncached reader.
func NewReader(caller Caller, contracts Contracts) *Reader {
	return &Reader{caller: caller, contracts: contracts}
}

// NewCachedReader creates a reader whose cache is invalidated by events
// published on bus.
func NewCachedReader(caller Caller, contracts Contracts, bus *Bus) *Reader {
	cache := NewCache()
	bus.Subscribe(cache.Invalidate)
	return &Reader{caller: caller, contracts: contracts, cache: cache}
}

// Contracts returns the configured addresses.
func (r *Reader) Contracts() Contracts {
	return r.contracts
}

// BalanceOf returns the governance token balance of account.
func (r *Reader) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return r.callBig(ctx, r.contracts.ElementToken, ERC20ABI, "balanceOf", account)
}

// Allowance returns how much spender may move from owner.
func (r *Reader) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return r.callBig(ctx, r.contracts.ElementToken, ERC20ABI, "allowance", owner, spender)
}

// Claimed returns the airdrop amount account already claimed.
func (r *Reader) Claimed(ctx context.Context, account common.Address) (*big.Int, error) {
	return r.callBig(ctx, r.contracts.Airdrop, AirdropABI, "claimed", account)
}

// Deposits returns the locking vault position of account.
func (r *Reader) Deposits(ctx context.Context, account common.Address) (Deposit, error) {
	out, err := r.call(ctx, r.contracts.LockingVault, LockingVaultABI, "deposits", account)
	if err != nil {
		return Deposit{}, err
	}
	if len(out) != 2 {
		return Deposit{}, fmt.Errorf("deposits: expected 2 outputs, got %d", len(out))
	}
	delegate, ok := out[0].(common.Address)
	if !ok {
		return Deposit{}, fmt.Errorf("deposits: unexpected delegate type %T", out[0])
	}
	amount, ok := out[1].(*big.Int)
	if !ok {
		return Deposit{}, fmt.Errorf("deposits: unexpected amount type %T", out[1])
	}
	return Deposit{Delegate: delegate, Amount: new(big.Int).Set(amount)}, nil
}

// Deposited returns the locked amount of account.
func (r *Reader) Deposited(ctx context.Context, account common.Address) (*big.Int, error) {
	d, err := r.Deposits(ctx, account)
	if err != nil {
		return nil, err
	}
	return d.Amount, nil
}

// VotingPower returns the locking vault vote power of account at block.
func (r *Reader) VotingPower(ctx context.Context, account common.Address, block uint64) (*big.Int, error) {
	return r.callBig(ctx, r.contracts.LockingVault, LockingVaultABI, "queryVotePowerView", account, new(big.Int).SetUint64(block))
}

func (r *Reader) callBig(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...any) (*big.Int, error) {
	out, err := r.call(ctx, contract, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return new(big.Int).Set(v), nil
}

func (r *Reader) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...any) ([]any, error) {
	input, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	key := cacheKey{contract: contract, method: method, args: hex.EncodeToString(input[4:])}
	if r.cache != nil {
		if out, ok := r.cache.get(key); ok {
			return out, nil
		}
	}

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}

	if r.cache != nil {
		r.cache.put(key, firstAddress(args), out)
	}
	return out, nil
}

func firstAddress(args []any) common.Address {
	for _, a := range args {
		if addr, ok := a.(common.Address); ok {
			return addr
		}
	}
	return common.Address{}
}
