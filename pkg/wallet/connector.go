package wallet

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/auth"
)

// Connector tracks the active account over a Provider. The active account
// is the first account the provider grants; provider-side account changes
// are folded into the connector's state and forwarded to the registered
// callback.
type Connector struct {
	provider Provider
	logger   *zap.Logger

	mu          sync.Mutex
	address     string
	connected   bool
	unsubscribe func()
	onChange    func(address string)
}

// NewConnector creates a Connector over the given provider. A nil provider
// is allowed; Connect will report ErrNoProvider.
func NewConnector(provider Provider, logger *zap.Logger) *Connector {
	return &Connector{
		provider: provider,
		logger:   logger,
	}
}

// Connect requests account access and adopts the first granted account as
// the active one. Connecting twice is idempotent while the provider keeps
// granting the same account.
func (c *Connector) Connect(ctx context.Context) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ErrRejected
	}

	address := auth.NormalizeAddress(accounts[0])

	c.mu.Lock()
	defer c.mu.Unlock()

	c.address = address
	c.connected = true
	if c.unsubscribe == nil {
		c.unsubscribe = c.provider.OnAccountsChanged(c.handleAccountsChanged)
	}

	c.logger.Info("Wallet connected", zap.String("address", address))
	return address, nil
}

// Disconnect drops the active account and stops listening for provider
// events. The provider itself may still hold the access grant.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.address = ""
	c.connected = false

	c.logger.Info("Wallet disconnected")
}

// Address returns the active account, if any.
func (c *Connector) Address() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address, c.connected
}

// SignPersonal signs the message with the active account.
func (c *Connector) SignPersonal(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	address, connected := c.address, c.connected
	c.mu.Unlock()

	if !connected {
		return "", ErrNotConnected
	}
	return c.provider.SignPersonal(ctx, address, message)
}

// OnAccountChange registers a callback invoked with the new active address,
// or the empty string when the wallet revoked access. Only one callback is
// held; a later registration replaces the earlier one.
func (c *Connector) OnAccountChange(fn func(address string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// handleAccountsChanged folds a provider event into the connector's state.
// An empty account list means revocation and resets the connection.
func (c *Connector) handleAccountsChanged(accounts []string) {
	c.mu.Lock()

	var notify func(string)
	var next string

	if len(accounts) == 0 {
		c.address = ""
		c.connected = false
		notify = c.onChange
		c.logger.Info("Wallet access revoked")
	} else {
		next = auth.NormalizeAddress(accounts[0])
		if next != c.address {
			c.address = next
			notify = c.onChange
			c.logger.Info("Active wallet account changed", zap.String("address", next))
		}
	}

	c.mu.Unlock()

	if notify != nil {
		notify(next)
	}
}
