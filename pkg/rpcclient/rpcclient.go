// Package rpcclient adapts the solana-go RPC client to the narrow read
// surface the fixture assembler needs: batched account reads, single
// account reads and the current slot.
package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
)

// ErrFetch wraps any transport or protocol failure from the RPC endpoint.
var ErrFetch = errors.New("ErrFetch")

// Client is the ledger read boundary. A nil *accounts.Account (or nil slice
// element) means the account does not exist at the requested commitment.
type Client interface {
	// GetMultipleAccounts issues exactly one getMultipleAccounts request.
	// The result is order-aligned with pubkeys.
	GetMultipleAccounts(ctx context.Context, commitment rpc.CommitmentType, pubkeys []solana.PublicKey) ([]*accounts.Account, error)

	GetAccount(ctx context.Context, commitment rpc.CommitmentType, pubkey solana.PublicKey) (*accounts.Account, error)

	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

type RpcClient struct {
	client *rpc.Client
}

func NewRpcClient(endpoint string) *RpcClient {
	client := rpc.New(endpoint)
	return &RpcClient{client: client}
}

func (fetcher *RpcClient) GetMultipleAccounts(ctx context.Context, commitment rpc.CommitmentType, pubkeys []solana.PublicKey) ([]*accounts.Account, error) {
	out, err := fetcher.client.GetMultipleAccountsWithOpts(ctx, pubkeys, &rpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return make([]*accounts.Account, len(pubkeys)), nil
		}
		return nil, fmt.Errorf("%w: getMultipleAccounts: %s", ErrFetch, err)
	}

	if len(out.Value) != len(pubkeys) {
		return nil, fmt.Errorf("%w: getMultipleAccounts returned %d results for %d pubkeys", ErrFetch, len(out.Value), len(pubkeys))
	}

	accts := make([]*accounts.Account, len(pubkeys))
	for i, acct := range out.Value {
		if acct == nil {
			continue
		}
		accts[i] = intoAccount(pubkeys[i], acct)
	}
	return accts, nil
}

func (fetcher *RpcClient) GetAccount(ctx context.Context, commitment rpc.CommitmentType, pubkey solana.PublicKey) (*accounts.Account, error) {
	out, err := fetcher.client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: getAccountInfo %s: %s", ErrFetch, pubkey, err)
	}
	if out.Value == nil {
		return nil, nil
	}
	return intoAccount(pubkey, out.Value), nil
}

func (fetcher *RpcClient) GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	slot, err := fetcher.client.GetSlot(ctx, commitment)
	if err != nil {
		return 0, fmt.Errorf("%w: getSlot: %s", ErrFetch, err)
	}
	return slot, nil
}

func intoAccount(pubkey solana.PublicKey, acct *rpc.Account) *accounts.Account {
	var rentEpoch uint64
	if acct.RentEpoch != nil {
		rentEpoch = acct.RentEpoch.Uint64()
	}

	var data []byte
	if acct.Data != nil {
		data = acct.Data.GetBinary()
	}

	return &accounts.Account{
		Key:        pubkey,
		Lamports:   acct.Lamports,
		Data:       data,
		Owner:      acct.Owner,
		Executable: acct.Executable,
		RentEpoch:  rentEpoch,
	}
}
