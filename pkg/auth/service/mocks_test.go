package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/noncestore"
)

// fakeNonceStore implements NonceStore in memory for service tests
type fakeNonceStore struct {
	mu           sync.Mutex
	nonces       map[string]string // value -> address
	issueErr     error
	consumeErr   error
	consumeCalls int
}

func newFakeNonceStore() *fakeNonceStore {
	return &fakeNonceStore{nonces: make(map[string]string)}
}

func (f *fakeNonceStore) Issue(_ context.Context, address string) (*noncestore.Nonce, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.issueErr != nil {
		return nil, f.issueErr
	}

	now := time.Now().UTC()
	n := &noncestore.Nonce{
		Value:     uuid.NewString(),
		Address:   auth.NormalizeAddress(address),
		IssuedAt:  now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	f.nonces[n.Value] = n.Address
	return n, nil
}

func (f *fakeNonceStore) Consume(_ context.Context, address, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.consumeCalls++
	if f.consumeErr != nil {
		return f.consumeErr
	}

	owner, ok := f.nonces[value]
	if !ok || owner != auth.NormalizeAddress(address) {
		return noncestore.ErrNonceInvalid
	}
	delete(f.nonces, value)
	return nil
}
