package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/goalstake/goalstake/internal/metrics"
	apperrors "github.com/goalstake/goalstake/pkg/app/errors"
	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/goal"
	"github.com/goalstake/goalstake/pkg/goalstore"
)

// Role names accepted by ListGoals
const (
	RoleCreator          = "creator"
	RoleReferee          = "referee"
	RoleFailureRecipient = "failure-recipient"
)

var (
	ErrInvalidRole       = errors.New("unknown goal role")
	ErrRefereeIsCreator  = errors.New("referee must differ from the goal creator")
	ErrInvalidStake      = errors.New("stake amount must be a positive decimal")
	ErrExpiryInPast      = errors.New("expiry date must be in the future")
	ErrDuplicateGoal     = errors.New("goal already recorded for this transaction")
)

// Store is the narrow persistence interface for the goal service.
type Store interface {
	CreateGoal(ctx context.Context, g *goal.Goal) (*goal.Goal, error)
	GetGoal(ctx context.Context, contractGoalID string) (*goal.Goal, error)
	ListGoals(ctx context.Context, opts ...goalstore.QueryOption) ([]*goal.Goal, error)
	TransitionStatus(ctx context.Context, contractGoalID string, from, to goal.Status, txHash string) (*goal.Goal, error)
}

// Service defines the interface for the goal business logic. Every method
// takes the caller's wallet address as established by the session layer;
// role checks always run before status checks.
type Service interface {
	CreateGoal(ctx context.Context, creator string, req *goal.CreateRequest) (*goal.Goal, error)
	ListGoals(ctx context.Context, caller, role string) ([]*goal.Goal, error)
	MarkMet(ctx context.Context, caller string, req *goal.TransitionRequest) (*goal.Goal, error)
	ClaimFunds(ctx context.Context, caller string, req *goal.TransitionRequest) (*goal.Goal, error)
}

type goalService struct {
	store    Store
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new goal service
func NewService(store Store, logger *zap.Logger) Service {
	return &goalService{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateGoal records a goal whose escrow transaction already confirmed on
// chain. Validation is fail-fast: the first broken rule is reported and no
// partial record is written.
func (s *goalService) CreateGoal(ctx context.Context, creator string, req *goal.CreateRequest) (*goal.Goal, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid goal payload")
	}
	if auth.SameAddress(creator, req.RefereeAddress) {
		return nil, apperrors.BadRequestError(ErrRefereeIsCreator, "referee must differ from the goal creator")
	}

	stake, err := decimal.NewFromString(req.StakeAmount)
	if err != nil || !stake.IsPositive() {
		return nil, apperrors.BadRequestError(ErrInvalidStake, "stake amount must be a positive decimal")
	}
	if !req.ExpiryDate.After(s.now()) {
		return nil, apperrors.BadRequestError(ErrExpiryInPast, "expiry date must be in the future")
	}

	created, err := s.store.CreateGoal(ctx, &goal.Goal{
		ContractGoalID:          req.ContractGoalID,
		CreatorAddress:          creator,
		RefereeAddress:          req.RefereeAddress,
		SuccessRecipientAddress: req.SuccessRecipientAddress,
		FailureRecipientAddress: req.FailureRecipientAddress,
		StakeAmount:             stake.String(),
		Title:                   req.Title,
		Description:             req.Description,
		ExpiryDate:              req.ExpiryDate,
		Status:                  goal.StatusPending,
		TransactionHash:         req.TransactionHash,
	})
	if err != nil {
		if errors.Is(err, goalstore.ErrDuplicateContractGoalID) {
			return nil, apperrors.ConflictError(ErrDuplicateGoal, "goal already recorded for this transaction")
		}
		return nil, fmt.Errorf("failed to save goal: %w", err)
	}

	metrics.GoalsCreated.Inc()
	return created, nil
}

// ListGoals returns the caller's goals for the given role. An empty role
// defaults to creator.
func (s *goalService) ListGoals(ctx context.Context, caller, role string) ([]*goal.Goal, error) {
	var opt goalstore.QueryOption
	switch role {
	case "", RoleCreator:
		opt = goalstore.WithCreator(caller)
	case RoleReferee:
		opt = goalstore.WithReferee(caller)
	case RoleFailureRecipient:
		opt = goalstore.WithFailureRecipient(caller)
	default:
		return nil, apperrors.BadRequestError(ErrInvalidRole, fmt.Sprintf("unknown role %q", role))
	}

	goals, err := s.store.ListGoals(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// MarkMet lets the designated referee confirm a pending goal was met.
func (s *goalService) MarkMet(ctx context.Context, caller string, req *goal.TransitionRequest) (*goal.Goal, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid transition payload")
	}

	g, err := s.loadGoal(ctx, req.ContractGoalID)
	if err != nil {
		return nil, err
	}

	if err := g.MarkMet(caller); err != nil {
		metrics.StatusTransitions.WithLabelValues("mark_met", "refused").Inc()
		return nil, transitionError(err)
	}

	updated, err := s.commitTransition(ctx, req, goal.StatusPending, g.Status)
	if err != nil {
		metrics.StatusTransitions.WithLabelValues("mark_met", "conflict").Inc()
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues("mark_met", "success").Inc()
	return updated, nil
}

// ClaimFunds settles a goal for whichever claim the caller's role allows.
// The success recipient claims after the referee marked the goal met; the
// failure recipient claims a pending goal past its expiry. A caller holding
// both roles gets the success claim when it is available.
func (s *goalService) ClaimFunds(ctx context.Context, caller string, req *goal.TransitionRequest) (*goal.Goal, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid transition payload")
	}

	g, err := s.loadGoal(ctx, req.ContractGoalID)
	if err != nil {
		return nil, err
	}

	isSuccess := auth.SameAddress(caller, g.SuccessRecipientAddress)
	isFailure := auth.SameAddress(caller, g.FailureRecipientAddress)

	var transition string
	var terr error
	switch {
	case isSuccess && g.Status == goal.StatusRefereeMarkedMet:
		transition = "claim_success"
		terr = g.ClaimSuccessFunds(caller)
	case isFailure:
		transition = "claim_failure"
		terr = g.ClaimFailureFunds(caller, s.now())
	case isSuccess:
		transition = "claim_success"
		terr = g.ClaimSuccessFunds(caller)
	default:
		metrics.StatusTransitions.WithLabelValues("claim", "refused").Inc()
		return nil, transitionError(goal.ErrWrongRole)
	}
	if terr != nil {
		metrics.StatusTransitions.WithLabelValues(transition, "refused").Inc()
		return nil, transitionError(terr)
	}

	var from goal.Status
	if transition == "claim_success" {
		from = goal.StatusRefereeMarkedMet
	} else {
		from = goal.StatusPending
	}

	updated, err := s.commitTransition(ctx, req, from, g.Status)
	if err != nil {
		metrics.StatusTransitions.WithLabelValues(transition, "conflict").Inc()
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(transition, "success").Inc()
	return updated, nil
}

func (s *goalService) loadGoal(ctx context.Context, contractGoalID string) (*goal.Goal, error) {
	g, err := s.store.GetGoal(ctx, contractGoalID)
	if err != nil {
		if errors.Is(err, goalstore.ErrGoalNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "goal not found")
		}
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return g, nil
}

// commitTransition persists a status change guarded by the expected source
// status, so two racing transitions cannot both win.
func (s *goalService) commitTransition(ctx context.Context, req *goal.TransitionRequest, from, to goal.Status) (*goal.Goal, error) {
	updated, err := s.store.TransitionStatus(ctx, req.ContractGoalID, from, to, req.TransactionHash)
	if err != nil {
		if errors.Is(err, goalstore.ErrStatusConflict) {
			return nil, apperrors.ConflictError(err, "goal status changed concurrently")
		}
		if errors.Is(err, goalstore.ErrGoalNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "goal not found")
		}
		return nil, fmt.Errorf("failed to update goal status: %w", err)
	}
	return updated, nil
}

// transitionError maps domain transition refusals onto the HTTP error
// taxonomy: role failures are 403, state failures are 409.
func transitionError(err error) error {
	switch {
	case errors.Is(err, goal.ErrWrongRole):
		return apperrors.ForbiddenError(err, "caller does not hold the required role")
	case errors.Is(err, goal.ErrWrongStatus):
		return apperrors.ConflictError(err, "goal status does not permit this transition")
	case errors.Is(err, goal.ErrNotExpired):
		return apperrors.ConflictError(err, "goal has not expired yet")
	default:
		return err
	}
}
