// Package goalstore persists goal records. Goals are inserted exactly once
// per on-chain escrow transaction and afterwards only status-transitioned.
package goalstore

import (
	"context"
	"errors"

	"github.com/goalstake/goalstake/pkg/goal"
)

var (
	// ErrGoalNotFound is returned when a goal lookup finds no matching record.
	ErrGoalNotFound = errors.New("goal not found")
	// ErrDuplicateContractGoalID is returned when a goal with the same
	// contract-assigned identifier already exists.
	ErrDuplicateContractGoalID = errors.New("contract goal id already exists")
	// ErrStatusConflict is returned when a status transition races with a
	// concurrent update and the expected source status no longer holds.
	ErrStatusConflict = errors.New("goal status changed concurrently")
)

// Store defines the interface for goal persistence
type Store interface {
	CreateGoal(ctx context.Context, g *goal.Goal) (*goal.Goal, error)
	GetGoal(ctx context.Context, contractGoalID string) (*goal.Goal, error)
	ListGoals(ctx context.Context, opts ...QueryOption) ([]*goal.Goal, error)
	// TransitionStatus updates the goal's status and transaction hash only
	// if its current status equals from; a concurrent transition surfaces
	// as ErrStatusConflict.
	TransitionStatus(ctx context.Context, contractGoalID string, from, to goal.Status, txHash string) (*goal.Goal, error)
}

// QueryOptions defines options for querying goals
type QueryOptions struct {
	CreatorAddress          *string
	RefereeAddress          *string
	FailureRecipientAddress *string
}

// QueryOption is a functional option for querying goals
type QueryOption func(*QueryOptions)

// WithCreator filters goals by creator address
func WithCreator(address string) QueryOption {
	return func(opts *QueryOptions) {
		opts.CreatorAddress = &address
	}
}

// WithReferee filters goals by referee address
func WithReferee(address string) QueryOption {
	return func(opts *QueryOptions) {
		opts.RefereeAddress = &address
	}
}

// WithFailureRecipient filters goals by failure recipient address
func WithFailureRecipient(address string) QueryOption {
	return func(opts *QueryOptions) {
		opts.FailureRecipientAddress = &address
	}
}
