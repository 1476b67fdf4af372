package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/goal"
)

const serviceName = "GoalService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the goal Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) CreateGoal(ctx context.Context, creator string, req *goal.CreateRequest) (created *goal.Goal, err error) {
	start := time.Now()

	ls.logger.Info("CreateGoal started",
		zap.String("service", serviceName),
		zap.String("creator", creator),
		zap.String("contract_goal_id", req.ContractGoalID),
		zap.String("stake_amount", req.StakeAmount),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("CreateGoal failed",
				zap.String("service", serviceName),
				zap.String("creator", creator),
				zap.String("contract_goal_id", req.ContractGoalID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("CreateGoal completed",
				zap.String("service", serviceName),
				zap.String("goal_id", created.ID),
				zap.String("contract_goal_id", created.ContractGoalID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.CreateGoal(ctx, creator, req)
}

func (ls *logService) ListGoals(ctx context.Context, caller, role string) (goals []*goal.Goal, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("ListGoals failed",
				zap.String("service", serviceName),
				zap.String("caller", caller),
				zap.String("role", role),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Debug("ListGoals completed",
				zap.String("service", serviceName),
				zap.String("caller", caller),
				zap.String("role", role),
				zap.Int("count", len(goals)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.ListGoals(ctx, caller, role)
}

func (ls *logService) MarkMet(ctx context.Context, caller string, req *goal.TransitionRequest) (updated *goal.Goal, err error) {
	return ls.logTransition(ctx, "MarkMet", caller, req, ls.svc.MarkMet)
}

func (ls *logService) ClaimFunds(ctx context.Context, caller string, req *goal.TransitionRequest) (updated *goal.Goal, err error) {
	return ls.logTransition(ctx, "ClaimFunds", caller, req, ls.svc.ClaimFunds)
}

func (ls *logService) logTransition(
	ctx context.Context,
	method, caller string,
	req *goal.TransitionRequest,
	fn func(context.Context, string, *goal.TransitionRequest) (*goal.Goal, error),
) (updated *goal.Goal, err error) {
	start := time.Now()

	ls.logger.Info(method+" started",
		zap.String("service", serviceName),
		zap.String("caller", caller),
		zap.String("contract_goal_id", req.ContractGoalID),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Warn(method+" failed",
				zap.String("service", serviceName),
				zap.String("caller", caller),
				zap.String("contract_goal_id", req.ContractGoalID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info(method+" completed",
				zap.String("service", serviceName),
				zap.String("contract_goal_id", req.ContractGoalID),
				zap.String("status", updated.Status.String()),
				zap.Duration("duration", duration),
			)
		}
	}()

	return fn(ctx, caller, req)
}
