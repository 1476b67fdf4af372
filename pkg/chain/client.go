// Package chain submits escrow transactions to the GoalFactory contract
// and waits for their confirmation.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/goalstake/goalstake/pkg/chain/contracts"
)

var (
	// ErrReverted means the transaction was mined but the contract
	// rejected it.
	ErrReverted = errors.New("transaction reverted")
	// ErrNoGoalCreatedEvent means a createGoal transaction confirmed
	// without announcing a goal id.
	ErrNoGoalCreatedEvent = errors.New("no GoalCreated event in receipt")
	// ErrInvalidStake means the stake string is not a positive decimal.
	ErrInvalidStake = errors.New("stake must be a positive decimal amount of ETH")
)

// weiPerEth converts whole ETH to wei
var weiPerEth = decimal.New(1, 18)

// backend is the subset of ethclient the Client relies on, split out so
// tests can substitute a simulated chain.
type backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// CreateGoalParams are the escrow arguments for a new goal.
type CreateGoalParams struct {
	RefereeAddress          string
	SuccessRecipientAddress string
	FailureRecipientAddress string
	// StakeETH is the stake as a decimal ETH amount, e.g. "0.5".
	StakeETH    string
	Description string
	Deadline    time.Time
}

// EscrowReceipt reports a confirmed createGoal transaction.
type EscrowReceipt struct {
	TxHash common.Hash
	// GoalID is the contract-assigned uniqueId for the goal.
	GoalID *big.Int
}

// Client signs and submits GoalFactory transactions with a local key.
type Client struct {
	cfg     *Config
	eth     backend
	closer  func()
	factory *contracts.GoalFactory
	key     *ecdsa.PrivateKey
	address common.Address
	logger  *zap.Logger
}

// NewClient dials the configured RPC endpoint and binds the escrow
// contract. The key signs every transaction the client submits.
func NewClient(cfg *Config, key *ecdsa.PrivateKey, logger *zap.Logger) (*Client, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	client, err := newClient(cfg, eth, key, logger)
	if err != nil {
		eth.Close()
		return nil, err
	}
	client.closer = eth.Close

	logger.Info("Connected to chain",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("goal_factory", cfg.GoalFactoryAddress),
		zap.String("signer", client.address.Hex()))

	return client, nil
}

func newClient(cfg *Config, eth backend, key *ecdsa.PrivateKey, logger *zap.Logger) (*Client, error) {
	factory, err := contracts.NewGoalFactory(common.HexToAddress(cfg.GoalFactoryAddress), eth)
	if err != nil {
		return nil, fmt.Errorf("failed to bind goal factory: %w", err)
	}

	return &Client{
		cfg:     cfg,
		eth:     eth,
		factory: factory,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		logger:  logger,
	}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Address returns the signing account.
func (c *Client) Address() common.Address {
	return c.address
}

// CreateGoal escrows the stake behind a new goal and blocks until the
// transaction confirms, returning the contract-assigned goal id.
func (c *Client) CreateGoal(ctx context.Context, params CreateGoalParams) (*EscrowReceipt, error) {
	stakeWei, err := StakeToWei(params.StakeETH)
	if err != nil {
		return nil, err
	}

	opts, err := c.transactor(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = stakeWei

	tx, err := c.factory.CreateGoal(
		opts,
		common.HexToAddress(params.RefereeAddress),
		common.HexToAddress(params.SuccessRecipientAddress),
		common.HexToAddress(params.FailureRecipientAddress),
		stakeWei,
		DescriptionHash(params.Description),
		big.NewInt(params.Deadline.Unix()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to submit createGoal: %w", err)
	}

	c.logger.Info("Escrow transaction submitted",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("stake_wei", stakeWei.String()))

	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return nil, err
	}

	event, err := c.factory.GoalCreatedFromReceipt(receipt)
	if err != nil {
		return nil, fmt.Errorf("%w (tx %s)", ErrNoGoalCreatedEvent, tx.Hash().Hex())
	}

	return &EscrowReceipt{TxHash: tx.Hash(), GoalID: event.UniqueId}, nil
}

// SetGoalMet records the referee confirmation on chain.
func (c *Client) SetGoalMet(ctx context.Context, goalID *big.Int) (common.Hash, error) {
	return c.transact(ctx, "setGoalMet", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.factory.SetGoalMet(opts, goalID)
	})
}

// ClaimSuccessfulGoalFunds pays the escrow to the success recipient.
func (c *Client) ClaimSuccessfulGoalFunds(ctx context.Context, goalID *big.Int) (common.Hash, error) {
	return c.transact(ctx, "claimSuccessfulGoalFunds", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.factory.ClaimSuccessfulGoalFunds(opts, goalID)
	})
}

// ClaimFailedGoalFunds pays the escrow to the failure recipient.
func (c *Client) ClaimFailedGoalFunds(ctx context.Context, goalID *big.Int) (common.Hash, error) {
	return c.transact(ctx, "claimFailedGoalFunds", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.factory.ClaimFailedGoalFunds(opts, goalID)
	})
}

func (c *Client) transact(
	ctx context.Context,
	method string,
	submit func(*bind.TransactOpts) (*types.Transaction, error),
) (common.Hash, error) {
	opts, err := c.transactor(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := submit(opts)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to submit %s: %w", method, err)
	}

	c.logger.Info("Transaction submitted",
		zap.String("method", method),
		zap.String("tx_hash", tx.Hash().Hex()))

	if _, err := c.waitMined(ctx, tx); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, big.NewInt(c.cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = c.cfg.GasLimit
	return opts, nil
}

// waitMined blocks until the transaction confirms or the configured
// timeout passes, and maps an unsuccessful receipt to ErrReverted.
func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for confirmation of %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

// StakeToWei converts a decimal ETH amount to wei. Amounts with more than
// 18 fractional digits are rejected rather than truncated.
func StakeToWei(stake string) (*big.Int, error) {
	d, err := decimal.NewFromString(stake)
	if err != nil || !d.IsPositive() {
		return nil, ErrInvalidStake
	}

	wei := d.Mul(weiPerEth)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("%w: %q has sub-wei precision", ErrInvalidStake, stake)
	}
	return wei.BigInt(), nil
}

// DescriptionHash is the keccak-256 digest of the goal description, the
// only form of the description that goes on chain.
func DescriptionHash(description string) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(description))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
