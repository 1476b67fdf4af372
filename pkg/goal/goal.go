// Package goal defines the accountability goal domain model and its status
// transition rules.
package goal

import (
	"errors"
	"time"

	"github.com/goalstake/goalstake/pkg/auth"
)

// Status enumerates the lifecycle of a goal. Goals are never deleted, only
// status-transitioned.
type Status int

const (
	// StatusPending is the initial state after on-chain escrow confirms.
	StatusPending Status = iota
	// StatusRefereeMarkedMet means the referee confirmed the goal was met.
	StatusRefereeMarkedMet
	// StatusSuccessFundsWithdrawn means the success recipient claimed the stake.
	StatusSuccessFundsWithdrawn
	// StatusFailureFundsWithdrawn means the failure recipient claimed the stake.
	StatusFailureFundsWithdrawn
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRefereeMarkedMet:
		return "referee-marked-met"
	case StatusSuccessFundsWithdrawn:
		return "success-funds-withdrawn"
	case StatusFailureFundsWithdrawn:
		return "failure-funds-withdrawn"
	default:
		return "unknown"
	}
}

var (
	// ErrWrongRole means the caller's address does not hold the role the
	// transition requires.
	ErrWrongRole = errors.New("caller does not hold the role required for this transition")
	// ErrWrongStatus means the goal's current status is not in the
	// transition's allowed source-state set.
	ErrWrongStatus = errors.New("goal status does not permit this transition")
	// ErrNotExpired means failure funds were claimed before the goal's
	// expiry date.
	ErrNotExpired = errors.New("goal has not expired yet")
)

// Goal is a staked accountability goal. A Goal record exists only after a
// successful on-chain escrow transaction; ContractGoalID is the identifier
// emitted by the contract's creation event and is immutable once set.
type Goal struct {
	ID                      string
	ContractGoalID          string
	CreatorAddress          string
	RefereeAddress          string
	SuccessRecipientAddress string
	FailureRecipientAddress string
	StakeAmount             string
	Description             string
	Title                   string
	ExpiryDate              time.Time
	Status                  Status
	TransactionHash         string
	CreatedAt               time.Time
}

// MarkMet transitions the goal to referee-marked-met. Only the designated
// referee may do this, and only while the goal is pending.
func (g *Goal) MarkMet(caller string) error {
	if !auth.SameAddress(caller, g.RefereeAddress) {
		return ErrWrongRole
	}
	if g.Status != StatusPending {
		return ErrWrongStatus
	}
	g.Status = StatusRefereeMarkedMet
	return nil
}

// ClaimSuccessFunds transitions the goal to success-funds-withdrawn. Only
// the success recipient may claim, and only after the referee marked the
// goal as met.
func (g *Goal) ClaimSuccessFunds(caller string) error {
	if !auth.SameAddress(caller, g.SuccessRecipientAddress) {
		return ErrWrongRole
	}
	if g.Status != StatusRefereeMarkedMet {
		return ErrWrongStatus
	}
	g.Status = StatusSuccessFundsWithdrawn
	return nil
}

// ClaimFailureFunds transitions the goal to failure-funds-withdrawn. Only
// the failure recipient may claim, only while the goal is pending, and only
// once the expiry date has passed.
func (g *Goal) ClaimFailureFunds(caller string, now time.Time) error {
	if !auth.SameAddress(caller, g.FailureRecipientAddress) {
		return ErrWrongRole
	}
	if g.Status != StatusPending {
		return ErrWrongStatus
	}
	if now.Before(g.ExpiryDate) {
		return ErrNotExpired
	}
	g.Status = StatusFailureFundsWithdrawn
	return nil
}
