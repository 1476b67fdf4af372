// Package contracts holds the Go binding for the GoalFactory escrow
// contract.
package contracts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// GoalFactoryMetaData contains all meta data concerning the GoalFactory contract.
var GoalFactoryMetaData = &bind.MetaData{
	ABI: "[{\"inputs\":[{\"internalType\":\"address\",\"name\":\"referee\",\"type\":\"address\"},{\"internalType\":\"address\",\"name\":\"successRecipient\",\"type\":\"address\"},{\"internalType\":\"address\",\"name\":\"failureRecipient\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"amount\",\"type\":\"uint256\"},{\"internalType\":\"bytes32\",\"name\":\"descriptionHash\",\"type\":\"bytes32\"},{\"internalType\":\"uint256\",\"name\":\"deadline\",\"type\":\"uint256\"}],\"name\":\"createGoal\",\"outputs\":[],\"stateMutability\":\"payable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"uniqueId\",\"type\":\"uint256\"}],\"name\":\"setGoalMet\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"uniqueId\",\"type\":\"uint256\"}],\"name\":\"claimFailedGoalFunds\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"uniqueId\",\"type\":\"uint256\"}],\"name\":\"claimSuccessfulGoalFunds\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"anonymous\":false,\"inputs\":[{\"indexed\":true,\"internalType\":\"uint256\",\"name\":\"uniqueId\",\"type\":\"uint256\"},{\"indexed\":true,\"internalType\":\"address\",\"name\":\"creator\",\"type\":\"address\"},{\"indexed\":false,\"internalType\":\"uint256\",\"name\":\"amount\",\"type\":\"uint256\"},{\"indexed\":false,\"internalType\":\"uint256\",\"name\":\"deadline\",\"type\":\"uint256\"}],\"name\":\"GoalCreated\",\"type\":\"event\"}]",
}

var ErrNotGoalCreated = errors.New("log is not a GoalCreated event")

// GoalFactory is a binding around the deployed escrow contract.
type GoalFactory struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewGoalFactory binds GoalFactory to a deployed contract address.
func NewGoalFactory(address common.Address, backend bind.ContractBackend) (*GoalFactory, error) {
	parsed, err := GoalFactoryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &GoalFactory{
		address:  address,
		abi:      *parsed,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address.
func (f *GoalFactory) Address() common.Address {
	return f.address
}

// CreateGoal escrows opts.Value behind a new goal. The contract assigns the
// goal's uniqueId and announces it in the GoalCreated event.
func (f *GoalFactory) CreateGoal(
	opts *bind.TransactOpts,
	referee, successRecipient, failureRecipient common.Address,
	amount *big.Int,
	descriptionHash [32]byte,
	deadline *big.Int,
) (*types.Transaction, error) {
	return f.contract.Transact(opts, "createGoal",
		referee, successRecipient, failureRecipient, amount, descriptionHash, deadline)
}

// SetGoalMet records the referee's confirmation on chain.
func (f *GoalFactory) SetGoalMet(opts *bind.TransactOpts, uniqueID *big.Int) (*types.Transaction, error) {
	return f.contract.Transact(opts, "setGoalMet", uniqueID)
}

// ClaimSuccessfulGoalFunds pays the escrow to the success recipient.
func (f *GoalFactory) ClaimSuccessfulGoalFunds(opts *bind.TransactOpts, uniqueID *big.Int) (*types.Transaction, error) {
	return f.contract.Transact(opts, "claimSuccessfulGoalFunds", uniqueID)
}

// ClaimFailedGoalFunds pays the escrow to the failure recipient.
func (f *GoalFactory) ClaimFailedGoalFunds(opts *bind.TransactOpts, uniqueID *big.Int) (*types.Transaction, error) {
	return f.contract.Transact(opts, "claimFailedGoalFunds", uniqueID)
}

// GoalCreatedEvent is the decoded GoalCreated log.
type GoalCreatedEvent struct {
	UniqueId *big.Int
	Creator  common.Address
	Amount   *big.Int
	Deadline *big.Int
	Raw      types.Log
}

// ParseGoalCreated decodes a GoalCreated event from a raw log.
func (f *GoalFactory) ParseGoalCreated(log types.Log) (*GoalCreatedEvent, error) {
	event := f.abi.Events["GoalCreated"]
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return nil, ErrNotGoalCreated
	}

	out := new(GoalCreatedEvent)
	if err := f.contract.UnpackLog(out, "GoalCreated", log); err != nil {
		return nil, err
	}
	out.Raw = log
	return out, nil
}

// GoalCreatedFromReceipt finds and decodes the GoalCreated event emitted by
// this contract in the receipt, if any.
func (f *GoalFactory) GoalCreatedFromReceipt(receipt *types.Receipt) (*GoalCreatedEvent, error) {
	for _, log := range receipt.Logs {
		if log.Address != f.address {
			continue
		}
		event, err := f.ParseGoalCreated(*log)
		if errors.Is(err, ErrNotGoalCreated) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return event, nil
	}
	return nil, ErrNotGoalCreated
}
