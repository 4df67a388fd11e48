package fixture

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
	"github.com/Overclock-Validator/svm-fixtures/pkg/rpcclient"
)

// mockLedgerClient stands in for the RPC transport. Expectations are keyed
// on the exact pubkey batches; fillMissing requests them in sorted order,
// so tests can predict the batch contents.
type mockLedgerClient struct {
	mock.Mock
}

var _ rpcclient.Client = (*mockLedgerClient)(nil)

func (m *mockLedgerClient) GetMultipleAccounts(ctx context.Context, commitment rpc.CommitmentType, pubkeys []solana.PublicKey) ([]*accounts.Account, error) {
	args := m.Called(ctx, commitment, pubkeys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.Account), args.Error(1)
}

func (m *mockLedgerClient) GetAccount(ctx context.Context, commitment rpc.CommitmentType, pubkey solana.PublicKey) (*accounts.Account, error) {
	args := m.Called(ctx, commitment, pubkey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *mockLedgerClient) GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, commitment)
	return args.Get(0).(uint64), args.Error(1)
}
