// Package noncestore persists one-time sign-in challenges keyed by wallet
// address. A nonce is valid for exactly one verification, only for the
// address it was issued to, and only before its expiry.
package noncestore

import (
	"context"
	"errors"
	"time"
)

// ErrNonceInvalid is returned by Consume when the nonce is absent, bound to
// a different address, already used, or expired. Callers must not
// distinguish these cases to avoid leaking challenge state.
var ErrNonceInvalid = errors.New("invalid or expired nonce")

// Nonce is a one-time random challenge a wallet must sign to prove
// ownership of an address.
type Nonce struct {
	Value     string
	Address   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Store defines the interface for nonce persistence
type Store interface {
	// Issue generates an unguessable nonce bound to the address with the
	// store's configured expiry.
	Issue(ctx context.Context, address string) (*Nonce, error)
	// Consume atomically checks existence, address match, and non-expiry,
	// and deletes the record so it cannot be replayed. No two concurrent
	// Consume calls for the same nonce may both succeed.
	Consume(ctx context.Context, address, value string) error
	// PurgeExpired removes expired nonces. Hygiene only; correctness does
	// not depend on it.
	PurgeExpired(ctx context.Context) (int64, error)
}
