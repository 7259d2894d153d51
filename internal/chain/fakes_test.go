package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type handler struct {
	method abi.Method
	fn     func(to common.Address, args []any) []any
}

// fakeCaller answers eth_call by decoding the selector against the known
// ABIs and packing whatever the handler returns.
type fakeCaller struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]handler
	err      error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{calls: map[string]int{}, handlers: map[string]handler{}}
}

func (f *fakeCaller) on(parsed abi.ABI, method string, fn func(to common.Address, args []any) []any) {
	m := parsed.Methods[method]
	f.handlers[hex.EncodeToString(m.ID)] = handler{method: m, fn: fn}
}

func (f *fakeCaller) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.handlers[hex.EncodeToString(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	f.calls[h.method.Name]++
	args, err := h.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	return h.method.Outputs.Pack(h.fn(*msg.To, args)...)
}

// fakeBackend is a minimal node: it accepts transactions and mines them
// immediately with the configured status.
type fakeBackend struct {
	*fakeCaller

	mu       sync.Mutex
	sent     []*types.Transaction
	status   uint64
	sendErr  error
	logs     []types.Log
	filterQs []ethereum.FilterQuery
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{fakeCaller: newFakeCaller(), status: types.ReceiptStatusSuccessful}
}

func (b *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100)}, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, tx := range b.sent {
		if tx.Hash() == hash {
			return &types.Receipt{
				Status:      b.status,
				TxHash:      hash,
				BlockNumber: big.NewInt(int64(101 + i)),
				GasUsed:     21_000,
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (b *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filterQs = append(b.filterQs, q)
	var out []types.Log
	for _, l := range b.logs {
		for _, a := range q.Addresses {
			if l.Address == a {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (b *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions not supported")
}
