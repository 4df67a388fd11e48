package fixture

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
	"github.com/Overclock-Validator/svm-fixtures/pkg/rpcclient"
	"github.com/Overclock-Validator/svm-fixtures/pkg/util"
)

// accountCache maps pubkey -> account snapshot for one AccountStore. It
// only ever grows; an insert for an existing key replaces the snapshot
// wholesale. Pubkeys the endpoint reported as nonexistent are remembered
// in absent so they are never queried twice.
type accountCache struct {
	entries map[solana.PublicKey]*accounts.Account
	absent  map[solana.PublicKey]struct{}
}

func newAccountCache() *accountCache {
	return &accountCache{
		entries: make(map[solana.PublicKey]*accounts.Account),
		absent:  make(map[solana.PublicKey]struct{}),
	}
}

func (c *accountCache) insert(acct *accounts.Account) {
	c.entries[acct.Key] = acct
}

func (c *accountCache) get(pubkey solana.PublicKey) (*accounts.Account, bool) {
	acct, ok := c.entries[pubkey]
	return acct, ok
}

func (c *accountCache) contains(pubkey solana.PublicKey) bool {
	_, ok := c.entries[pubkey]
	return ok
}

func (c *accountCache) len() int {
	return len(c.entries)
}

// pubkeysSorted gives a deterministic enumeration order; map iteration
// alone would make test runs diverge.
func (c *accountCache) pubkeysSorted() []solana.PublicKey {
	pubkeys := make([]solana.PublicKey, 0, len(c.entries))
	for pk := range c.entries {
		pubkeys = append(pubkeys, pk)
	}
	util.SortPubkeys(pubkeys)
	return pubkeys
}

// fillMissing fetches the subset of pubkeys not already cached with one
// getMultipleAccounts call and inserts every returned state. It returns
// the pubkeys (from this input) that do not exist on chain, both newly
// discovered and previously recorded ones. On a transport error nothing
// is applied.
func (c *accountCache) fillMissing(ctx context.Context, client rpcclient.Client, commitment rpc.CommitmentType, pubkeys []solana.PublicKey) ([]solana.PublicKey, error) {
	var toFetch []solana.PublicKey
	var absent []solana.PublicKey

	for _, pk := range pubkeys {
		if c.contains(pk) {
			continue
		}
		if _, ok := c.absent[pk]; ok {
			absent = append(absent, pk)
			continue
		}
		toFetch = append(toFetch, pk)
	}

	if len(toFetch) == 0 {
		return absent, nil
	}

	klog.Infof("fetching %d accounts (%d already cached)", len(toFetch), len(pubkeys)-len(toFetch))

	fetched, err := client.GetMultipleAccounts(ctx, commitment, toFetch)
	if err != nil {
		return nil, err
	}

	for i, acct := range fetched {
		if acct == nil {
			c.absent[toFetch[i]] = struct{}{}
			absent = append(absent, toFetch[i])
			continue
		}
		c.insert(acct)
	}

	return absent, nil
}
