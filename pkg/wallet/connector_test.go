package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/auth"
)

// rejectingProvider declines every account request
type rejectingProvider struct{}

func (rejectingProvider) RequestAccounts(context.Context) ([]string, error) {
	return nil, ErrRejected
}
func (rejectingProvider) Accounts(context.Context) ([]string, error)          { return nil, nil }
func (rejectingProvider) SignPersonal(context.Context, string, string) (string, error) {
	return "", ErrRejected
}
func (rejectingProvider) OnAccountsChanged(func([]string)) func() { return func() {} }

func newTestKeyProvider(t *testing.T) *KeyProvider {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	return NewKeyProvider(key)
}

func TestConnector_Connect_AdoptsFirstAccount(t *testing.T) {
	provider := newTestKeyProvider(t)
	c := NewConnector(provider, zap.NewNop())

	address, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if address != provider.Address() {
		t.Fatalf("expected address %q, got %q", provider.Address(), address)
	}

	got, connected := c.Address()
	if !connected {
		t.Fatal("expected connector to be connected")
	}
	if got != address {
		t.Fatalf("expected active address %q, got %q", address, got)
	}
}

func TestConnector_Connect_NilProvider(t *testing.T) {
	c := NewConnector(nil, zap.NewNop())

	_, err := c.Connect(context.Background())
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestConnector_Connect_Rejected(t *testing.T) {
	c := NewConnector(rejectingProvider{}, zap.NewNop())

	_, err := c.Connect(context.Background())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}

	if _, connected := c.Address(); connected {
		t.Fatal("expected connector to stay disconnected")
	}
}

func TestConnector_SignPersonal_RoundTrip(t *testing.T) {
	provider := newTestKeyProvider(t)
	c := NewConnector(provider, zap.NewNop())

	address, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	signature, err := c.SignPersonal(context.Background(), "challenge-nonce")
	if err != nil {
		t.Fatalf("SignPersonal() failed: %v", err)
	}

	recovered, err := auth.RecoverAddress("challenge-nonce", signature)
	if err != nil {
		t.Fatalf("RecoverAddress() failed: %v", err)
	}
	if !auth.SameAddress(recovered.Hex(), address) {
		t.Fatalf("expected signer %q, recovered %q", address, recovered.Hex())
	}
}

func TestConnector_SignPersonal_RequiresConnection(t *testing.T) {
	c := NewConnector(newTestKeyProvider(t), zap.NewNop())

	_, err := c.SignPersonal(context.Background(), "message")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnector_Disconnect_ClearsState(t *testing.T) {
	c := NewConnector(newTestKeyProvider(t), zap.NewNop())

	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	c.Disconnect()

	if _, connected := c.Address(); connected {
		t.Fatal("expected connector to be disconnected")
	}
	if _, err := c.SignPersonal(context.Background(), "message"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after disconnect, got %v", err)
	}
}

func TestConnector_AccountSwitch_NotifiesCallback(t *testing.T) {
	provider := newTestKeyProvider(t)
	c := NewConnector(provider, zap.NewNop())

	var mu sync.Mutex
	var events []string
	c.OnAccountChange(func(address string) {
		mu.Lock()
		events = append(events, address)
		mu.Unlock()
	})

	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	otherKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	provider.SwitchKey(otherKey)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected 1 change event, got %d", len(events))
	}
	if events[0] != provider.Address() {
		t.Fatalf("expected event for %q, got %q", provider.Address(), events[0])
	}

	got, connected := c.Address()
	if !connected || got != provider.Address() {
		t.Fatalf("expected active address %q, got %q (connected=%v)", provider.Address(), got, connected)
	}
}

func TestConnector_Revocation_Disconnects(t *testing.T) {
	provider := newTestKeyProvider(t)
	c := NewConnector(provider, zap.NewNop())

	var mu sync.Mutex
	var events []string
	c.OnAccountChange(func(address string) {
		mu.Lock()
		events = append(events, address)
		mu.Unlock()
	})

	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	provider.Revoke()

	if _, connected := c.Address(); connected {
		t.Fatal("expected connector to be disconnected after revocation")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != "" {
		t.Fatalf("expected single empty-address event, got %v", events)
	}
}

func TestKeyProvider_SignPersonal_WrongAccount(t *testing.T) {
	provider := newTestKeyProvider(t)

	_, err := provider.SignPersonal(context.Background(),
		"0x9999999999999999999999999999999999999999", "message")
	if err == nil {
		t.Fatal("expected error for foreign account, got nil")
	}
}
