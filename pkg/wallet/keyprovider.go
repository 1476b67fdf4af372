package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/goalstake/goalstake/pkg/auth"
)

// KeyProvider is a Provider backed by a local secp256k1 private key. It
// never prompts; account access is always granted for its single account.
// Useful for CLI use and tests.
type KeyProvider struct {
	mu       sync.Mutex
	key      *ecdsa.PrivateKey
	address  string
	handlers map[int]func([]string)
	nextID   int
}

// NewKeyProvider wraps an in-memory private key.
func NewKeyProvider(key *ecdsa.PrivateKey) *KeyProvider {
	return &KeyProvider{
		key:      key,
		address:  auth.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex()),
		handlers: make(map[int]func([]string)),
	}
}

// KeyProviderFromHex parses a 0x-prefixed or bare hex private key.
func KeyProviderFromHex(hexKey string) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeyProvider(key), nil
}

// Address returns the provider's single account.
func (p *KeyProvider) Address() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

// Key exposes the underlying private key for transaction signing.
func (p *KeyProvider) Key() *ecdsa.PrivateKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

func (p *KeyProvider) RequestAccounts(context.Context) ([]string, error) {
	return p.accounts()
}

func (p *KeyProvider) Accounts(context.Context) ([]string, error) {
	return p.accounts()
}

func (p *KeyProvider) accounts() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.address == "" {
		return nil, nil
	}
	return []string{p.address}, nil
}

// SignPersonal signs with the EIP-191 prefix. The recovery id is shifted to
// 27/28 to match what wallets emit.
func (p *KeyProvider) SignPersonal(_ context.Context, address, message string) (string, error) {
	p.mu.Lock()
	key, owned := p.key, p.address
	p.mu.Unlock()

	if !auth.SameAddress(address, owned) {
		return "", fmt.Errorf("account %s not held by this provider", address)
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))

	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[64] += 27

	return "0x" + hex.EncodeToString(sig), nil
}

func (p *KeyProvider) OnAccountsChanged(fn func(accounts []string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.handlers[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

// SwitchKey replaces the provider's key and fires accounts-changed, the way
// a wallet does when its holder switches accounts.
func (p *KeyProvider) SwitchKey(key *ecdsa.PrivateKey) {
	p.mu.Lock()
	p.key = key
	p.address = auth.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())
	accounts := []string{p.address}
	handlers := make([]func([]string), 0, len(p.handlers))
	for _, fn := range p.handlers {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(accounts)
	}
}

// Revoke drops the key and fires accounts-changed with no accounts.
func (p *KeyProvider) Revoke() {
	p.mu.Lock()
	p.key = nil
	p.address = ""
	handlers := make([]func([]string), 0, len(p.handlers))
	for _, fn := range p.handlers {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(nil)
	}
}
