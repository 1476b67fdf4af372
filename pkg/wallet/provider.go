// Package wallet abstracts wallet backends behind a Provider interface and
// tracks the active account through a Connector.
package wallet

import (
	"context"
	"errors"
)

var (
	// ErrNoProvider means no wallet backend is available to connect to.
	ErrNoProvider = errors.New("no wallet provider available")
	// ErrRejected means the wallet holder declined the request.
	ErrRejected = errors.New("wallet request rejected")
	// ErrNotConnected means an operation needing an active account ran
	// before Connect or after Disconnect.
	ErrNotConnected = errors.New("wallet not connected")
)

// Provider is a wallet backend: a browser extension bridge, a hardware
// signer, or a local key. Account addresses are returned in hex form;
// callers must not assume a particular casing.
type Provider interface {
	// RequestAccounts prompts the wallet holder for access and returns the
	// granted accounts. A declined prompt returns ErrRejected.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Accounts returns the currently granted accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)

	// SignPersonal signs the message with the given account using the
	// EIP-191 personal_sign scheme and returns a 0x-prefixed 65-byte
	// signature.
	SignPersonal(ctx context.Context, address, message string) (string, error)

	// OnAccountsChanged registers a listener for account changes. An empty
	// slice means the wallet revoked access entirely. The returned function
	// unregisters the listener.
	OnAccountsChanged(fn func(accounts []string)) (unsubscribe func())
}
