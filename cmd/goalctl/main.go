// goalctl drives the goalstake flow from the command line: it signs in
// with a local wallet key, escrows stakes on chain and records goals
// through the API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/apiclient"
	"github.com/goalstake/goalstake/pkg/authflow"
	"github.com/goalstake/goalstake/pkg/chain"
	"github.com/goalstake/goalstake/pkg/committer"
	"github.com/goalstake/goalstake/pkg/config"
	"github.com/goalstake/goalstake/pkg/goal"
	"github.com/goalstake/goalstake/pkg/wallet"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: goalctl [flags] <command> [command flags]

Commands:
  whoami        Print the wallet address and verify the session
  create-goal   Escrow a stake on chain and record the goal
  record-goal   Retry persisting a goal whose stake is already escrowed
  goals         List goals for a role (creator, referee, failure-recipient)
  complete      Mark a goal met on chain and record the transition
  claim         Claim escrowed funds on chain and record the transition

Flags:
`)
	flag.PrintDefaults()
}

var configPath = flag.String("config", "goalctl.yaml", "Path to configuration file")

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles the signed-in client stack the commands share.
type env struct {
	cfg    *config.ClientConfig
	logger *zap.Logger
	flow   *authflow.Orchestrator
	api    *apiclient.Client
	key    *wallet.KeyProvider
}

func run(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger, command string, args []string) error {
	key, err := wallet.KeyProviderFromHex(cfg.Wallet.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to load wallet key: %w", err)
	}

	api, err := apiclient.NewClient(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	flow := authflow.NewOrchestrator(wallet.NewConnector(key, logger), api, logger)
	if err := flow.SignIn(ctx); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	e := &env{cfg: cfg, logger: logger, flow: flow, api: api, key: key}

	switch command {
	case "whoami":
		return cmdWhoami(ctx, e)
	case "create-goal":
		return cmdCreateGoal(ctx, e, args)
	case "record-goal":
		return cmdRecordGoal(ctx, e, args)
	case "goals":
		return cmdGoals(ctx, e, args)
	case "complete":
		return cmdComplete(ctx, e, args)
	case "claim":
		return cmdClaim(ctx, e, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdWhoami(ctx context.Context, e *env) error {
	session, err := e.api.Validate(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", session.WalletAddress)
	return nil
}

// draftFlags registers the goal draft flags shared by create-goal and
// record-goal.
func draftFlags(fs *flag.FlagSet) (draft *committer.Draft, expiry *string) {
	draft = &committer.Draft{}
	fs.StringVar(&draft.Title, "title", "", "Goal title")
	fs.StringVar(&draft.Description, "description", "", "Goal description")
	fs.StringVar(&draft.StakeETH, "stake", "", "Stake in ETH, e.g. 0.5")
	fs.StringVar(&draft.RefereeAddress, "referee", "", "Referee address")
	fs.StringVar(&draft.SuccessRecipientAddress, "success-recipient", "", "Recipient if the goal is met")
	fs.StringVar(&draft.FailureRecipientAddress, "failure-recipient", "", "Recipient if the goal fails")
	expiry = fs.String("expiry", "", "Goal deadline, RFC 3339 (e.g. 2026-12-31T00:00:00Z)")
	return draft, expiry
}

func parseExpiry(expiry string) (time.Time, error) {
	if expiry == "" {
		return time.Time{}, errors.New("-expiry is required")
	}
	t, err := time.Parse(time.RFC3339, expiry)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -expiry: %w", err)
	}
	return t, nil
}

func (e *env) escrowClient() (*chain.Client, error) {
	return chain.NewClient(&e.cfg.Chain, e.key.Key(), e.logger)
}

func cmdCreateGoal(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("create-goal", flag.ExitOnError)
	draft, expiry := draftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	deadline, err := parseExpiry(*expiry)
	if err != nil {
		return err
	}
	draft.ExpiryDate = deadline

	escrow, err := e.escrowClient()
	if err != nil {
		return err
	}
	defer escrow.Close()

	resp, err := committer.NewCommitter(escrow, e.api, e.logger).Commit(ctx, draft)

	var partial *committer.PartialCommitError
	if errors.As(err, &partial) {
		fmt.Fprintf(os.Stderr,
			"Stake escrowed in tx %s as goal %s, but recording failed: %v\n"+
				"Retry with: goalctl record-goal -tx-hash %s -contract-goal-id %s ...\n",
			partial.TxHash, partial.ContractGoalID, partial.Err,
			partial.TxHash, partial.ContractGoalID)
		return errors.New("goal partially created")
	}
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdRecordGoal(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("record-goal", flag.ExitOnError)
	draft, expiry := draftFlags(fs)
	txHash := fs.String("tx-hash", "", "Hash of the confirmed escrow transaction")
	contractGoalID := fs.String("contract-goal-id", "", "Goal id assigned by the contract")
	if err := fs.Parse(args); err != nil {
		return err
	}
	deadline, err := parseExpiry(*expiry)
	if err != nil {
		return err
	}
	draft.ExpiryDate = deadline
	if *txHash == "" || *contractGoalID == "" {
		return errors.New("-tx-hash and -contract-goal-id are required")
	}

	escrow, err := e.escrowClient()
	if err != nil {
		return err
	}
	defer escrow.Close()

	resp, err := committer.NewCommitter(escrow, e.api, e.logger).Record(ctx, draft, *txHash, *contractGoalID)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdGoals(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("goals", flag.ExitOnError)
	role := fs.String("role", "", "Role to list goals for: creator (default), referee, failure-recipient")
	if err := fs.Parse(args); err != nil {
		return err
	}

	goals, err := e.api.FetchGoals(ctx, *role)
	if err != nil {
		return err
	}
	return printJSON(goals)
}

func cmdComplete(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("complete", flag.ExitOnError)
	contractGoalID := fs.String("contract-goal-id", "", "Goal id assigned by the contract")
	if err := fs.Parse(args); err != nil {
		return err
	}
	goalID, err := parseGoalID(*contractGoalID)
	if err != nil {
		return err
	}

	escrow, err := e.escrowClient()
	if err != nil {
		return err
	}
	defer escrow.Close()

	txHash, err := escrow.SetGoalMet(ctx, goalID)
	if err != nil {
		return err
	}

	resp, err := e.api.CompleteGoal(ctx, &goal.TransitionRequest{
		ContractGoalID:  *contractGoalID,
		TransactionHash: txHash.Hex(),
	})
	if err != nil {
		return fmt.Errorf("goal marked met in tx %s but recording failed: %w", txHash.Hex(), err)
	}
	return printJSON(resp)
}

func cmdClaim(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("claim", flag.ExitOnError)
	contractGoalID := fs.String("contract-goal-id", "", "Goal id assigned by the contract")
	outcome := fs.String("outcome", "", "Which escrow to claim: success or failure")
	if err := fs.Parse(args); err != nil {
		return err
	}
	goalID, err := parseGoalID(*contractGoalID)
	if err != nil {
		return err
	}

	escrow, err := e.escrowClient()
	if err != nil {
		return err
	}
	defer escrow.Close()

	var txHash common.Hash
	switch *outcome {
	case "success":
		txHash, err = escrow.ClaimSuccessfulGoalFunds(ctx, goalID)
	case "failure":
		txHash, err = escrow.ClaimFailedGoalFunds(ctx, goalID)
	default:
		return errors.New("-outcome must be success or failure")
	}
	if err != nil {
		return err
	}

	resp, err := e.api.ClaimFunds(ctx, &goal.TransitionRequest{
		ContractGoalID:  *contractGoalID,
		TransactionHash: txHash.Hex(),
	})
	if err != nil {
		return fmt.Errorf("funds claimed in tx %s but recording failed: %w", txHash.Hex(), err)
	}
	return printJSON(resp)
}

func parseGoalID(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("-contract-goal-id is required")
	}
	id, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid -contract-goal-id %q", s)
	}
	return id, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
