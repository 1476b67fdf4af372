package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/goal"
	"github.com/goalstake/goalstake/pkg/goalstore"
)

// fakeGoalStore implements Store in memory for service tests, mirroring the
// postgres store's guarded-update transition semantics.
type fakeGoalStore struct {
	mu     sync.Mutex
	goals  map[string]*goal.Goal // keyed by contract goal id
	nextID int

	createErr error
	listErr   error
}

func newFakeGoalStore() *fakeGoalStore {
	return &fakeGoalStore{goals: make(map[string]*goal.Goal)}
}

func (f *fakeGoalStore) CreateGoal(_ context.Context, g *goal.Goal) (*goal.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.goals[g.ContractGoalID]; exists {
		return nil, goalstore.ErrDuplicateContractGoalID
	}

	f.nextID++
	stored := *g
	stored.ID = fmt.Sprintf("goal-%d", f.nextID)
	stored.CreatorAddress = auth.NormalizeAddress(g.CreatorAddress)
	stored.RefereeAddress = auth.NormalizeAddress(g.RefereeAddress)
	stored.SuccessRecipientAddress = auth.NormalizeAddress(g.SuccessRecipientAddress)
	stored.FailureRecipientAddress = auth.NormalizeAddress(g.FailureRecipientAddress)
	stored.CreatedAt = time.Now().UTC()
	f.goals[g.ContractGoalID] = &stored

	out := stored
	return &out, nil
}

func (f *fakeGoalStore) GetGoal(_ context.Context, contractGoalID string) (*goal.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.goals[contractGoalID]
	if !ok {
		return nil, goalstore.ErrGoalNotFound
	}
	out := *g
	return &out, nil
}

func (f *fakeGoalStore) ListGoals(_ context.Context, opts ...goalstore.QueryOption) ([]*goal.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	var options goalstore.QueryOptions
	for _, opt := range opts {
		opt(&options)
	}

	var out []*goal.Goal
	for _, g := range f.goals {
		if options.CreatorAddress != nil && !auth.SameAddress(g.CreatorAddress, *options.CreatorAddress) {
			continue
		}
		if options.RefereeAddress != nil && !auth.SameAddress(g.RefereeAddress, *options.RefereeAddress) {
			continue
		}
		if options.FailureRecipientAddress != nil && !auth.SameAddress(g.FailureRecipientAddress, *options.FailureRecipientAddress) {
			continue
		}
		copied := *g
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeGoalStore) TransitionStatus(_ context.Context, contractGoalID string, from, to goal.Status, txHash string) (*goal.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.goals[contractGoalID]
	if !ok {
		return nil, goalstore.ErrGoalNotFound
	}
	if g.Status != from {
		return nil, goalstore.ErrStatusConflict
	}

	g.Status = to
	if txHash != "" {
		g.TransactionHash = txHash
	}
	out := *g
	return &out, nil
}
