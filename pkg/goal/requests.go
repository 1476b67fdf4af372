package goal

import "time"

// CreateRequest is the payload for recording a goal whose escrow
// transaction already confirmed on chain. The creator address is not part
// of the payload; it is taken from the authenticated session.
type CreateRequest struct {
	ContractGoalID          string    `json:"contractGoalId" validate:"required,max=78"`
	RefereeAddress          string    `json:"refereeAddress" validate:"required,eth_addr"`
	SuccessRecipientAddress string    `json:"successRecipientAddress" validate:"required,eth_addr"`
	FailureRecipientAddress string    `json:"failureRecipientAddress" validate:"required,eth_addr"`
	StakeAmount             string    `json:"stakeAmount" validate:"required"`
	Title                   string    `json:"title" validate:"required,max=200"`
	Description             string    `json:"description" validate:"required"`
	ExpiryDate              time.Time `json:"expiryDate" validate:"required"`
	TransactionHash         string    `json:"transactionHash" validate:"required,len=66"`
}

// TransitionRequest identifies the goal for a status transition and carries
// the hash of the on-chain transaction that backs it.
type TransitionRequest struct {
	ContractGoalID  string `json:"contractGoalId" validate:"required"`
	TransactionHash string `json:"transactionHash" validate:"omitempty,len=66"`
}

// Response is the JSON shape of a goal record.
type Response struct {
	ID                      string    `json:"id"`
	ContractGoalID          string    `json:"contractGoalId"`
	CreatorAddress          string    `json:"creatorAddress"`
	RefereeAddress          string    `json:"refereeAddress"`
	SuccessRecipientAddress string    `json:"successRecipientAddress"`
	FailureRecipientAddress string    `json:"failureRecipientAddress"`
	StakeAmount             string    `json:"stakeAmount"`
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	ExpiryDate              time.Time `json:"expiryDate"`
	Status                  int       `json:"status"`
	StatusLabel             string    `json:"statusLabel"`
	TransactionHash         string    `json:"transactionHash"`
	CreatedAt               time.Time `json:"createdAt"`
}

// NewResponse converts a domain goal into its wire form.
func NewResponse(g *Goal) *Response {
	return &Response{
		ID:                      g.ID,
		ContractGoalID:          g.ContractGoalID,
		CreatorAddress:          g.CreatorAddress,
		RefereeAddress:          g.RefereeAddress,
		SuccessRecipientAddress: g.SuccessRecipientAddress,
		FailureRecipientAddress: g.FailureRecipientAddress,
		StakeAmount:             g.StakeAmount,
		Title:                   g.Title,
		Description:             g.Description,
		ExpiryDate:              g.ExpiryDate,
		Status:                  int(g.Status),
		StatusLabel:             g.Status.String(),
		TransactionHash:         g.TransactionHash,
		CreatedAt:               g.CreatedAt,
	}
}

// NewResponseList converts a slice of goals into wire form, never nil.
func NewResponseList(goals []*Goal) []*Response {
	out := make([]*Response, 0, len(goals))
	for _, g := range goals {
		out = append(out, NewResponse(g))
	}
	return out
}
