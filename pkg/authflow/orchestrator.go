// Package authflow drives the wallet sign-in flow end to end: connect a
// wallet, obtain a challenge, sign it, and hold the resulting session.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/apiclient"
	"github.com/goalstake/goalstake/pkg/wallet"
)

// State is the orchestrator's position in the sign-in flow.
type State int

const (
	// StateDisconnected means no wallet account is active.
	StateDisconnected State = iota
	// StateConnecting means a wallet connection prompt is outstanding.
	StateConnecting
	// StateConnected means a wallet account is active but not signed in.
	StateConnected
	// StateSigningIn means a challenge round-trip is in flight.
	StateSigningIn
	// StateAuthenticated means the server session is established.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSigningIn:
		return "signing-in"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// signInCall is one in-flight sign-in shared by concurrent callers.
type signInCall struct {
	done chan struct{}
	err  error
}

// Orchestrator sequences wallet connection and server sign-in, and reacts
// to wallet-side account changes: switching or revoking the account drops
// the authenticated session.
type Orchestrator struct {
	wallet *wallet.Connector
	api    *apiclient.Client
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	address  string
	inflight *signInCall
}

// NewOrchestrator wires a wallet connector to an API client. It registers
// itself as the connector's account-change callback.
func NewOrchestrator(connector *wallet.Connector, api *apiclient.Client, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		wallet: connector,
		api:    api,
		logger: logger,
		state:  StateDisconnected,
	}
	connector.OnAccountChange(o.handleAccountChange)
	return o
}

// State returns the current flow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Address returns the active wallet address, empty when disconnected.
func (o *Orchestrator) Address() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.address
}

// Connect establishes the wallet connection without signing in.
func (o *Orchestrator) Connect(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state == StateAuthenticated || o.state == StateConnected {
		address := o.address
		o.mu.Unlock()
		return address, nil
	}
	o.state = StateConnecting
	o.mu.Unlock()

	address, err := o.wallet.Connect(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateDisconnected
		return "", err
	}
	o.state = StateConnected
	o.address = address

	return address, nil
}

// SignIn runs the challenge flow: request a nonce for the active account,
// sign it with the wallet, and verify the signature with the server.
// Concurrent calls share one flight; a call on an authenticated
// orchestrator is a no-op.
func (o *Orchestrator) SignIn(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateAuthenticated {
		o.mu.Unlock()
		return nil
	}
	if o.inflight != nil {
		call := o.inflight
		o.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &signInCall{done: make(chan struct{})}
	o.inflight = call
	o.mu.Unlock()

	err := o.signIn(ctx)

	o.mu.Lock()
	call.err = err
	o.inflight = nil
	o.mu.Unlock()
	close(call.done)

	return err
}

func (o *Orchestrator) signIn(ctx context.Context) error {
	if _, err := o.Connect(ctx); err != nil {
		return fmt.Errorf("wallet connection failed: %w", err)
	}

	o.mu.Lock()
	o.state = StateSigningIn
	address := o.address
	o.mu.Unlock()

	fail := func(err error) error {
		o.mu.Lock()
		if o.state == StateSigningIn {
			o.state = StateConnected
		}
		o.mu.Unlock()
		return err
	}

	challenge, err := o.api.RequestNonce(ctx, address)
	if err != nil {
		return fail(fmt.Errorf("nonce request failed: %w", err))
	}

	signature, err := o.wallet.SignPersonal(ctx, challenge.Nonce)
	if err != nil {
		return fail(fmt.Errorf("challenge signing failed: %w", err))
	}

	if _, err := o.api.Verify(ctx, address, challenge.Nonce, signature); err != nil {
		return fail(fmt.Errorf("verification failed: %w", err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// The account may have switched or been revoked while the round-trip
	// was in flight; the session belongs to the address that signed.
	if o.address != address {
		if o.state == StateSigningIn {
			o.state = StateConnected
		}
		o.logger.Warn("Account changed during sign-in, discarding session",
			zap.String("signed_as", address))
		return errors.New("wallet account changed during sign-in")
	}

	o.state = StateAuthenticated
	o.logger.Info("Signed in", zap.String("address", address))
	return nil
}

// SignOut revokes the server session and disconnects the wallet. Both are
// always attempted; their errors are joined.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	apiErr := o.api.SignOut(ctx)
	o.wallet.Disconnect()

	o.mu.Lock()
	o.state = StateDisconnected
	o.address = ""
	o.mu.Unlock()

	if apiErr != nil {
		return fmt.Errorf("server sign-out failed: %w", apiErr)
	}
	return nil
}

// handleAccountChange reacts to wallet-side account events. Revocation
// tears everything down; a switch to a different account invalidates the
// session but keeps the connection.
func (o *Orchestrator) handleAccountChange(address string) {
	o.mu.Lock()
	wasAuthenticated := o.state == StateAuthenticated

	if address == "" {
		o.state = StateDisconnected
		o.address = ""
	} else {
		o.address = address
		if o.state == StateAuthenticated {
			o.state = StateConnected
		}
	}
	o.mu.Unlock()

	if wasAuthenticated {
		o.logger.Info("Wallet account changed, dropping session", zap.String("address", address))
		if err := o.api.SignOut(context.Background()); err != nil {
			o.logger.Warn("Best-effort server sign-out failed", zap.Error(err))
		}
	}
}
