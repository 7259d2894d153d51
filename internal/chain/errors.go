package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted is wrapped by TransactionError when a mined transaction
// reports failure.
var ErrReverted = errors.New("transaction reverted")

// TransactionError reports a failed submission. Failures are transient
// from the caller's point of view: nothing is retried here and no flow
// state is touched.
type TransactionError struct {
	Method string
	// TxHash is zero when the transaction never reached the network.
	TxHash common.Hash
	Err    error
}

func (e *TransactionError) Error() string {
	if e.TxHash == (common.Hash{}) {
		return fmt.Sprintf("transaction %s failed: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("transaction %s (%s) failed: %v", e.Method, e.TxHash.Hex(), e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// IsTransactionFailed reports whether err is a TransactionError.
func IsTransactionFailed(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}
