package goalstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goalstake/goalstake/pkg/goal"
)

// GoalDao is a data access object that maps directly to the 'goals' table in PostgreSQL.
type GoalDao struct {
	bun.BaseModel           `bun:"table:goals,alias:g"`
	ID                      string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ContractGoalID          string    `bun:"contract_goal_id,unique,notnull,type:varchar(78)"`
	CreatorAddress          string    `bun:"creator_address,notnull,type:varchar(42)"`
	RefereeAddress          string    `bun:"referee_address,notnull,type:varchar(42)"`
	SuccessRecipientAddress string    `bun:"success_recipient_address,notnull,type:varchar(42)"`
	FailureRecipientAddress string    `bun:"failure_recipient_address,notnull,type:varchar(42)"`
	StakeAmount             string    `bun:"stake_amount,notnull,type:numeric(38,18)"`
	Description             string    `bun:"description,notnull,type:text"`
	Title                   string    `bun:"title,notnull,type:varchar(255)"`
	ExpiryDate              time.Time `bun:"expiry_date,notnull"`
	Status                  int       `bun:"status,notnull,default:0,type:smallint"`
	TransactionHash         string    `bun:"transaction_hash,notnull,type:varchar(66)"`
	CreatedAt               time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toGoalDao(g *goal.Goal) *GoalDao {
	return &GoalDao{
		ID:                      g.ID,
		ContractGoalID:          g.ContractGoalID,
		CreatorAddress:          g.CreatorAddress,
		RefereeAddress:          g.RefereeAddress,
		SuccessRecipientAddress: g.SuccessRecipientAddress,
		FailureRecipientAddress: g.FailureRecipientAddress,
		StakeAmount:             g.StakeAmount,
		Description:             g.Description,
		Title:                   g.Title,
		ExpiryDate:              g.ExpiryDate,
		Status:                  int(g.Status),
		TransactionHash:         g.TransactionHash,
		CreatedAt:               g.CreatedAt,
	}
}

func toGoal(dao *GoalDao) *goal.Goal {
	return &goal.Goal{
		ID:                      dao.ID,
		ContractGoalID:          dao.ContractGoalID,
		CreatorAddress:          dao.CreatorAddress,
		RefereeAddress:          dao.RefereeAddress,
		SuccessRecipientAddress: dao.SuccessRecipientAddress,
		FailureRecipientAddress: dao.FailureRecipientAddress,
		StakeAmount:             dao.StakeAmount,
		Description:             dao.Description,
		Title:                   dao.Title,
		ExpiryDate:              dao.ExpiryDate,
		Status:                  goal.Status(dao.Status),
		TransactionHash:         dao.TransactionHash,
		CreatedAt:               dao.CreatedAt,
	}
}
