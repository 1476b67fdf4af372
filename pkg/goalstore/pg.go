package goalstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/goal"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the goal store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreateGoal(ctx context.Context, g *goal.Goal) (*goal.Goal, error) {
	dao := toGoalDao(g)
	dao.CreatorAddress = auth.NormalizeAddress(dao.CreatorAddress)
	dao.RefereeAddress = auth.NormalizeAddress(dao.RefereeAddress)
	dao.SuccessRecipientAddress = auth.NormalizeAddress(dao.SuccessRecipientAddress)
	dao.FailureRecipientAddress = auth.NormalizeAddress(dao.FailureRecipientAddress)

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return nil, ErrDuplicateContractGoalID
		}
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return toGoal(dao), nil
}

func (s *pgStore) GetGoal(ctx context.Context, contractGoalID string) (*goal.Goal, error) {
	dao := new(GoalDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("contract_goal_id = ?", contractGoalID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return toGoal(dao), nil
}

func (s *pgStore) ListGoals(ctx context.Context, opts ...QueryOption) ([]*goal.Goal, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var daos []GoalDao
	query := s.db.NewSelect().Model(&daos)

	if options.CreatorAddress != nil {
		query = query.Where("creator_address = ?", auth.NormalizeAddress(*options.CreatorAddress))
	}
	if options.RefereeAddress != nil {
		query = query.Where("referee_address = ?", auth.NormalizeAddress(*options.RefereeAddress))
	}
	if options.FailureRecipientAddress != nil {
		query = query.Where("failure_recipient_address = ?", auth.NormalizeAddress(*options.FailureRecipientAddress))
	}

	if err := query.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	goals := make([]*goal.Goal, 0, len(daos))
	for i := range daos {
		goals = append(goals, toGoal(&daos[i]))
	}
	return goals, nil
}

// TransitionStatus guards the update with the expected source status in the
// WHERE clause, so racing transitions resolve to a single winner without
// application-level locking.
func (s *pgStore) TransitionStatus(
	ctx context.Context,
	contractGoalID string,
	from, to goal.Status,
	txHash string,
) (*goal.Goal, error) {
	res, err := s.db.NewUpdate().
		Model((*GoalDao)(nil)).
		Set("status = ?", int(to)).
		Set("transaction_hash = ?", txHash).
		Where("contract_goal_id = ?", contractGoalID).
		Where("status = ?", int(from)).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to transition goal status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read transition result: %w", err)
	}
	if affected == 0 {
		// Either the goal is gone or its status moved under us.
		if _, getErr := s.GetGoal(ctx, contractGoalID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStatusConflict
	}

	return s.GetGoal(ctx, contractGoalID)
}
