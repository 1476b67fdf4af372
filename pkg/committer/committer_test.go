package committer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/goalstake/goalstake/pkg/chain"
	"github.com/goalstake/goalstake/pkg/goal"
)

const (
	creatorAddr = "0x1111111111111111111111111111111111111111"
	refereeAddr = "0x2222222222222222222222222222222222222222"
	successAddr = "0x3333333333333333333333333333333333333333"
	failureAddr = "0x4444444444444444444444444444444444444444"

	testTxHash = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type fakeEscrow struct {
	address    common.Address
	receipt    *chain.EscrowReceipt
	err        error
	calls      int
	lastParams chain.CreateGoalParams
}

func (f *fakeEscrow) Address() common.Address {
	return f.address
}

func (f *fakeEscrow) CreateGoal(_ context.Context, params chain.CreateGoalParams) (*chain.EscrowReceipt, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeRecorder struct {
	resp    *goal.Response
	err     error
	calls   int
	lastReq *goal.CreateRequest
}

func (f *fakeRecorder) CreateGoal(_ context.Context, req *goal.CreateRequest) (*goal.Response, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func validDraft() *Draft {
	return &Draft{
		Title:                   "Run a marathon",
		Description:             "Finish the city marathon before the deadline",
		StakeETH:                "0.5",
		RefereeAddress:          refereeAddr,
		SuccessRecipientAddress: successAddr,
		FailureRecipientAddress: failureAddr,
		ExpiryDate:              time.Now().Add(30 * 24 * time.Hour),
	}
}

func newTestCommitter(escrow *fakeEscrow, recorder *fakeRecorder) *Committer {
	if escrow.address == (common.Address{}) {
		escrow.address = common.HexToAddress(creatorAddr)
	}
	return NewCommitter(escrow, recorder, zap.NewNop())
}

func TestCommit_HappyPath(t *testing.T) {
	escrow := &fakeEscrow{
		receipt: &chain.EscrowReceipt{
			TxHash: common.HexToHash(testTxHash),
			GoalID: big.NewInt(42),
		},
	}
	recorder := &fakeRecorder{resp: &goal.Response{ID: "goal-1", ContractGoalID: "42"}}
	c := newTestCommitter(escrow, recorder)

	resp, err := c.Commit(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if resp.ID != "goal-1" {
		t.Fatalf("unexpected goal id %q", resp.ID)
	}

	if escrow.calls != 1 || recorder.calls != 1 {
		t.Fatalf("expected one call per phase, got escrow=%d recorder=%d", escrow.calls, recorder.calls)
	}
	if escrow.lastParams.StakeETH != "0.5" {
		t.Fatalf("unexpected stake %q", escrow.lastParams.StakeETH)
	}
	if recorder.lastReq.ContractGoalID != "42" {
		t.Fatalf("unexpected contract goal id %q", recorder.lastReq.ContractGoalID)
	}
	if recorder.lastReq.TransactionHash != testTxHash {
		t.Fatalf("unexpected tx hash %q", recorder.lastReq.TransactionHash)
	}
}

func TestCommit_RejectsInvalidDraftBeforeStaking(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"missing title", func(d *Draft) { d.Title = "" }, nil},
		{"bad referee address", func(d *Draft) { d.RefereeAddress = "not-an-address" }, nil},
		{"referee is creator", func(d *Draft) { d.RefereeAddress = creatorAddr }, ErrRefereeIsCreator},
		{"zero stake", func(d *Draft) { d.StakeETH = "0" }, chain.ErrInvalidStake},
		{"negative stake", func(d *Draft) { d.StakeETH = "-1" }, chain.ErrInvalidStake},
		{"past expiry", func(d *Draft) { d.ExpiryDate = time.Now().Add(-time.Hour) }, ErrExpiryInPast},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			escrow := &fakeEscrow{}
			recorder := &fakeRecorder{}
			c := newTestCommitter(escrow, recorder)

			draft := validDraft()
			tc.mutate(draft)

			_, err := c.Commit(context.Background(), draft)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if escrow.calls != 0 {
				t.Fatal("invalid draft must not reach the chain")
			}
			if recorder.calls != 0 {
				t.Fatal("invalid draft must not reach the recorder")
			}
		})
	}
}

func TestCommit_EscrowFailureSkipsPersistence(t *testing.T) {
	escrow := &fakeEscrow{err: chain.ErrReverted}
	recorder := &fakeRecorder{}
	c := newTestCommitter(escrow, recorder)

	_, err := c.Commit(context.Background(), validDraft())
	if !errors.Is(err, chain.ErrReverted) {
		t.Fatalf("expected ErrReverted, got %v", err)
	}

	var partial *PartialCommitError
	if errors.As(err, &partial) {
		t.Fatal("a phase one failure is not a partial commit")
	}
	if recorder.calls != 0 {
		t.Fatal("recorder must not be called when the escrow fails")
	}
}

func TestCommit_PersistFailureReportsPartialCommit(t *testing.T) {
	escrow := &fakeEscrow{
		receipt: &chain.EscrowReceipt{
			TxHash: common.HexToHash(testTxHash),
			GoalID: big.NewInt(7),
		},
	}
	recorder := &fakeRecorder{err: errors.New("api unavailable")}
	c := newTestCommitter(escrow, recorder)

	_, err := c.Commit(context.Background(), validDraft())

	var partial *PartialCommitError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialCommitError, got %v", err)
	}
	if partial.TxHash != testTxHash {
		t.Fatalf("unexpected tx hash %q", partial.TxHash)
	}
	if partial.ContractGoalID != "7" {
		t.Fatalf("unexpected contract goal id %q", partial.ContractGoalID)
	}
}

func TestRecord_RetriesPersistenceWithoutStaking(t *testing.T) {
	escrow := &fakeEscrow{}
	recorder := &fakeRecorder{resp: &goal.Response{ID: "goal-9", ContractGoalID: "7"}}
	c := newTestCommitter(escrow, recorder)

	resp, err := c.Record(context.Background(), validDraft(), testTxHash, "7")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if resp.ID != "goal-9" {
		t.Fatalf("unexpected goal id %q", resp.ID)
	}

	if escrow.calls != 0 {
		t.Fatal("Record must not stake again")
	}
	if recorder.lastReq.TransactionHash != testTxHash {
		t.Fatalf("unexpected tx hash %q", recorder.lastReq.TransactionHash)
	}
}
