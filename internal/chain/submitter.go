package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is what the submitter needs from a node. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Call is a state-changing contract call.
type Call struct {
	Contract common.Address
	ABI      abi.ABI
	Method   string
	Args     []any
	// Invalidates lists the reads this call changes. They are published on
	// the bus once the transaction is mined successfully.
	Invalidates []Entity
}

// Receipt summarizes a mined transaction.
type Receipt struct {
	Method      string
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// TxRecord is handed to a Recorder for every submission attempt that
// reached the network.
type TxRecord struct {
	Method string
	From   common.Address
	To     common.Address
	TxHash common.Hash
	Status string // "success" or "failed"
	Err    string
}

// Recorder persists submission outcomes.
type Recorder interface {
	RecordTransaction(ctx context.Context, rec TxRecord) error
}

// Submitter signs, sends and waits for contract transactions.
type Submitter interface {
	Submit(ctx context.Context, call Call) (*Receipt, error)
	From() common.Address
}

// TxSubmitter is the ethclient-backed Submitter.
type TxSubmitter struct {
	backend  Backend
	opts     *bind.TransactOpts
	bus      *Bus
	recorder Recorder
}

// SubmitterOption configures a TxSubmitter.
type SubmitterOption func(*TxSubmitter)

// WithRecorder records every mined or failed transaction.
func WithRecorder(r Recorder) SubmitterOption {
	return func(s *TxSubmitter) {
		s.recorder = r
	}
}

// WithGas fixes gas price and limit instead of asking the node.
func WithGas(price *big.Int, limit uint64) SubmitterOption {
	return func(s *TxSubmitter) {
		s.opts.GasPrice = price
		s.opts.GasLimit = limit
	}
}

// NewTxSubmitter creates a submitter signing with key on chainID.
func NewTxSubmitter(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int, bus *Bus, opts ...SubmitterOption) (*TxSubmitter, error) {
	txOpts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	s := &TxSubmitter{backend: backend, opts: txOpts, bus: bus}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ParsePrivateKey parses a hex private key with or without 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if len(hexKey) >= 2 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// From returns the signing account.
func (s *TxSubmitter) From() common.Address {
	return s.opts.From
}

// Submit sends call and blocks until it is mined. Any failure is returned
// as *TransactionError and is not retried.
func (s *TxSubmitter) Submit(ctx context.Context, call Call) (*Receipt, error) {
	contract := bind.NewBoundContract(call.Contract, call.ABI, s.backend, s.backend, s.backend)

	opts := *s.opts
	opts.Context = ctx

	tx, err := contract.Transact(&opts, call.Method, call.Args...)
	if err != nil {
		return nil, &TransactionError{Method: call.Method, Err: err}
	}
	slog.Info("transaction submitted", "method", call.Method, "tx", tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, s.backend, tx)
	if err != nil {
		terr := &TransactionError{Method: call.Method, TxHash: tx.Hash(), Err: err}
		s.record(ctx, call, tx.Hash(), terr)
		return nil, terr
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		terr := &TransactionError{Method: call.Method, TxHash: tx.Hash(), Err: ErrReverted}
		s.record(ctx, call, tx.Hash(), terr)
		return nil, terr
	}

	s.record(ctx, call, tx.Hash(), nil)
	if s.bus != nil && len(call.Invalidates) > 0 {
		s.bus.Publish(call.Invalidates...)
	}

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	slog.Info("transaction mined", "method", call.Method, "tx", tx.Hash().Hex(), "block", block)
	return &Receipt{Method: call.Method, TxHash: tx.Hash(), BlockNumber: block, GasUsed: receipt.GasUsed}, nil
}

func (s *TxSubmitter) record(ctx context.Context, call Call, hash common.Hash, txErr error) {
	if s.recorder == nil {
		return
	}
	rec := TxRecord{
		Method: call.Method,
		From:   s.opts.From,
		To:     call.Contract,
		TxHash: hash,
		Status: "success",
	}
	if txErr != nil {
		rec.Status = "failed"
		rec.Err = txErr.Error()
	}
	if err := s.recorder.RecordTransaction(ctx, rec); err != nil {
		slog.Warn("record transaction failed", "tx", hash.Hex(), "error", err)
	}
}
