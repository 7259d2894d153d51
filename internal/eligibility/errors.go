package eligibility

import "errors"

var (
	// ErrUnavailable means eligibility cannot be decided yet: no wallet is
	// connected or a lookup failed. It is never a zero entitlement.
	ErrUnavailable = errors.New("eligibility unavailable")

	// ErrProofMismatch means the published proof does not link the
	// address and value to the configured root.
	ErrProofMismatch = errors.New("merkle proof does not match root")
)

// IsUnavailable reports whether err is or wraps ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
