// Package committer creates goals in two phases: first the stake is
// escrowed on chain, then the goal record is persisted through the API.
// The chain write is the source of truth; a goal whose escrow confirmed
// but whose record failed to persist is reported as a partial commit so
// the caller can retry persistence without staking twice.
package committer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/chain"
	"github.com/goalstake/goalstake/pkg/goal"
)

var (
	ErrRefereeIsCreator = errors.New("referee must be a different account than the creator")
	ErrExpiryInPast     = errors.New("expiry date must be in the future")
)

// Draft is a goal as entered by the creator, before any id or transaction
// hash exists.
type Draft struct {
	Title                   string    `validate:"required,max=200"`
	Description             string    `validate:"required"`
	StakeETH                string    `validate:"required"`
	RefereeAddress          string    `validate:"required,eth_addr"`
	SuccessRecipientAddress string    `validate:"required,eth_addr"`
	FailureRecipientAddress string    `validate:"required,eth_addr"`
	ExpiryDate              time.Time `validate:"required"`
}

// GoalEscrow is the chain side of the commit.
type GoalEscrow interface {
	Address() common.Address
	CreateGoal(ctx context.Context, params chain.CreateGoalParams) (*chain.EscrowReceipt, error)
}

// GoalRecorder is the persistence side of the commit.
type GoalRecorder interface {
	CreateGoal(ctx context.Context, req *goal.CreateRequest) (*goal.Response, error)
}

// PartialCommitError reports a goal whose stake is escrowed on chain but
// whose record could not be persisted. TxHash and ContractGoalID identify
// the escrow so persistence can be retried with Record.
type PartialCommitError struct {
	TxHash         string
	ContractGoalID string
	Err            error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("goal %s escrowed in tx %s but not persisted: %s",
		e.ContractGoalID, e.TxHash, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

// Committer drives goal creation across the escrow contract and the API.
type Committer struct {
	escrow   GoalEscrow
	recorder GoalRecorder
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewCommitter(escrow GoalEscrow, recorder GoalRecorder, logger *zap.Logger) *Committer {
	return &Committer{
		escrow:   escrow,
		recorder: recorder,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

// Commit escrows the draft's stake and then persists the goal record.
// On a phase one failure nothing has been staked and the error is plain;
// on a phase two failure the error is a PartialCommitError.
func (c *Committer) Commit(ctx context.Context, draft *Draft) (*goal.Response, error) {
	if err := c.checkDraft(draft); err != nil {
		return nil, err
	}

	receipt, err := c.escrow.CreateGoal(ctx, chain.CreateGoalParams{
		RefereeAddress:          draft.RefereeAddress,
		SuccessRecipientAddress: draft.SuccessRecipientAddress,
		FailureRecipientAddress: draft.FailureRecipientAddress,
		StakeETH:                draft.StakeETH,
		Description:             draft.Description,
		Deadline:                draft.ExpiryDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to escrow stake: %w", err)
	}

	contractGoalID := receipt.GoalID.String()
	c.logger.Info("Stake escrowed",
		zap.String("contract_goal_id", contractGoalID),
		zap.String("tx_hash", receipt.TxHash.Hex()))

	resp, err := c.record(ctx, draft, receipt.TxHash.Hex(), contractGoalID)
	if err != nil {
		return nil, &PartialCommitError{
			TxHash:         receipt.TxHash.Hex(),
			ContractGoalID: contractGoalID,
			Err:            err,
		}
	}
	return resp, nil
}

// Record retries the persistence phase for an already escrowed goal.
func (c *Committer) Record(ctx context.Context, draft *Draft, txHash, contractGoalID string) (*goal.Response, error) {
	if err := c.checkDraft(draft); err != nil {
		return nil, err
	}
	return c.record(ctx, draft, txHash, contractGoalID)
}

func (c *Committer) record(ctx context.Context, draft *Draft, txHash, contractGoalID string) (*goal.Response, error) {
	resp, err := c.recorder.CreateGoal(ctx, &goal.CreateRequest{
		ContractGoalID:          contractGoalID,
		RefereeAddress:          draft.RefereeAddress,
		SuccessRecipientAddress: draft.SuccessRecipientAddress,
		FailureRecipientAddress: draft.FailureRecipientAddress,
		StakeAmount:             draft.StakeETH,
		Title:                   draft.Title,
		Description:             draft.Description,
		ExpiryDate:              draft.ExpiryDate,
		TransactionHash:         txHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist goal record: %w", err)
	}

	c.logger.Info("Goal recorded",
		zap.String("contract_goal_id", contractGoalID),
		zap.String("goal_id", resp.ID))
	return resp, nil
}

// checkDraft rejects drafts the contract or the API would refuse, before
// any transaction is signed.
func (c *Committer) checkDraft(draft *Draft) error {
	if err := c.validate.Struct(draft); err != nil {
		return fmt.Errorf("invalid goal draft: %w", err)
	}
	if _, err := chain.StakeToWei(draft.StakeETH); err != nil {
		return err
	}
	if !draft.ExpiryDate.After(c.now()) {
		return ErrExpiryInPast
	}
	if auth.SameAddress(draft.RefereeAddress, c.escrow.Address().Hex()) {
		return ErrRefereeIsCreator
	}
	return nil
}
