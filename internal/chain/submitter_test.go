package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu   sync.Mutex
	recs []TxRecord
}

func (m *memRecorder) RecordTransaction(_ context.Context, rec TxRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func newTestSubmitter(t *testing.T, backend *fakeBackend, bus *Bus, rec Recorder) *TxSubmitter {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts := []SubmitterOption{WithGas(big.NewInt(1), 200_000)}
	if rec != nil {
		opts = append(opts, WithRecorder(rec))
	}
	s, err := NewTxSubmitter(backend, key, big.NewInt(1337), bus, opts...)
	require.NoError(t, err)
	return s
}

func changeDelegationCall(to common.Address) Call {
	return Call{
		Contract: testContracts.LockingVault,
		ABI:      LockingVaultABI,
		Method:   "changeDelegation",
		Args:     []any{to},
		Invalidates: []Entity{
			{Contract: testContracts.LockingVault, Method: "deposits", Account: holder},
		},
	}
}

func TestTxSubmitter_Success(t *testing.T) {
	backend := newFakeBackend()
	bus := NewBus()
	rec := &memRecorder{}
	s := newTestSubmitter(t, backend, bus, rec)

	var invalidated []Entity
	bus.Subscribe(func(e Entity) { invalidated = append(invalidated, e) })

	receipt, err := s.Submit(context.Background(), changeDelegationCall(delegate))
	require.NoError(t, err)
	assert.Equal(t, "changeDelegation", receipt.Method)
	assert.Equal(t, uint64(101), receipt.BlockNumber)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, testContracts.LockingVault, *tx.To())
	assert.Equal(t, LockingVaultABI.Methods["changeDelegation"].ID, tx.Data()[:4])

	signer := types.LatestSignerForChainID(big.NewInt(1337))
	from, err := types.Sender(signer, tx)
	require.NoError(t, err)
	assert.Equal(t, s.From(), from)

	bus.Flush()
	require.Len(t, invalidated, 1)
	assert.Equal(t, "deposits", invalidated[0].Method)

	require.Len(t, rec.recs, 1)
	assert.Equal(t, "success", rec.recs[0].Status)
	assert.Equal(t, receipt.TxHash, rec.recs[0].TxHash)
}

func TestTxSubmitter_Reverted(t *testing.T) {
	backend := newFakeBackend()
	backend.status = types.ReceiptStatusFailed
	bus := NewBus()
	rec := &memRecorder{}
	s := newTestSubmitter(t, backend, bus, rec)

	_, err := s.Submit(context.Background(), changeDelegationCall(delegate))
	require.Error(t, err)
	assert.True(t, IsTransactionFailed(err))
	assert.ErrorIs(t, err, ErrReverted)

	var terr *TransactionError
	require.True(t, errors.As(err, &terr))
	assert.NotEqual(t, common.Hash{}, terr.TxHash)

	assert.Equal(t, 0, bus.Len(), "failed transactions must not invalidate reads")
	require.Len(t, rec.recs, 1)
	assert.Equal(t, "failed", rec.recs[0].Status)
}

func TestTxSubmitter_SendFailureNotRetried(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("insufficient funds for gas")
	s := newTestSubmitter(t, backend, NewBus(), nil)

	_, err := s.Submit(context.Background(), changeDelegationCall(delegate))
	require.Error(t, err)
	assert.True(t, IsTransactionFailed(err))
	assert.ErrorContains(t, err, "insufficient funds")
	assert.Empty(t, backend.sent)
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	for _, in := range []string{hexKey, "0x" + hexKey} {
		got, err := ParsePrivateKey(in)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(got.PublicKey))
	}

	_, err = ParsePrivateKey("zz")
	assert.Error(t, err)
}
