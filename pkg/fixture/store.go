// Package fixture assembles mainnet account state into an execution
// harness so instructions can be replayed against real state without a
// live network during the test run.
//
// The AccountStore is built once, populated from instructions (batched
// getMultipleAccounts for everything not pre-seeded), and then drained
// into a harness: plain accounts via AddAccounts, executable accounts via
// AddPrograms, which resolves the loader convention of each program and
// extracts its ELF payload, and the ledger slot via WithSyncedSlot.
package fixture

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
	"github.com/Overclock-Validator/svm-fixtures/pkg/base58"
	"github.com/Overclock-Validator/svm-fixtures/pkg/harness"
	"github.com/Overclock-Validator/svm-fixtures/pkg/loader"
	"github.com/Overclock-Validator/svm-fixtures/pkg/rpcclient"
	"github.com/Overclock-Validator/svm-fixtures/pkg/util"
)

var systemProgramAddr = base58.MustDecodeFromString("11111111111111111111111111111111")

// AccountStore fetches, caches and hands off account state. Policy
// toggles may only be flipped before the first fetch; afterwards the
// configuration is frozen and late toggles are ignored with a warning.
//
// One store owns one cache. Stores are not safe for concurrent use, but
// independent stores never share state.
type AccountStore struct {
	client     rpcclient.Client
	commitment rpc.CommitmentType
	cache      *accountCache

	allowMissing   bool
	skipValidation bool

	// populated flips on the first fetch and never resets.
	populated bool
}

const DefaultCommitment = rpc.CommitmentConfirmed

func NewAccountStore(endpoint string) *AccountStore {
	return NewAccountStoreWithCommitment(endpoint, DefaultCommitment)
}

func NewAccountStoreWithCommitment(endpoint string, commitment rpc.CommitmentType) *AccountStore {
	return NewAccountStoreWithClient(rpcclient.NewRpcClient(endpoint), commitment)
}

// NewAccountStoreWithClient injects the ledger client directly, which is
// how tests substitute a mock for the RPC transport.
func NewAccountStoreWithClient(client rpcclient.Client, commitment rpc.CommitmentType) *AccountStore {
	return &AccountStore{
		client:     client,
		commitment: commitment,
		cache:      newAccountCache(),
	}
}

// AllowMissingAccounts switches the store to permissive mode: pubkeys with
// no account on chain are given a synthesized zero-lamport, non-executable,
// system-owned account, and programs whose program-data account is missing
// are skipped during AddPrograms instead of failing the call.
func (store *AccountStore) AllowMissingAccounts() *AccountStore {
	if store.populated {
		klog.Warningf("AllowMissingAccounts called after the store was populated; ignored")
		return store
	}
	store.allowMissing = true
	return store
}

// SkipProgramValidation disables the ELF header sanity check in
// AddPrograms.
func (store *AccountStore) SkipProgramValidation() *AccountStore {
	if store.populated {
		klog.Warningf("SkipProgramValidation called after the store was populated; ignored")
		return store
	}
	store.skipValidation = true
	return store
}

// WithAccounts pre-seeds (or overwrites) cache entries. Seeded entries
// always win over remote state: FromInstructions never queries a pubkey
// that is already cached. Valid at any point in the store's life.
func (store *AccountStore) WithAccounts(accts []*accounts.Account) *AccountStore {
	for _, acct := range accts {
		store.cache.insert(acct.Clone())
	}
	return store
}

// WithFixture pre-seeds the cache from a fixture snapshot file.
func (store *AccountStore) WithFixture(path string) error {
	accts, err := LoadFixture(path)
	if err != nil {
		return err
	}
	store.WithAccounts(accts)
	return nil
}

func (store *AccountStore) FromInstruction(ctx context.Context, instr solana.Instruction) error {
	return store.FromInstructions(ctx, []solana.Instruction{instr})
}

// FromInstructions fetches every account referenced by the instructions
// that is not already cached, in a single batched request. Repeatable:
// overlapping calls only fetch the incremental new pubkeys.
func (store *AccountStore) FromInstructions(ctx context.Context, instrs []solana.Instruction) error {
	return store.FromPubkeys(ctx, CollectPubkeys(instrs))
}

// FromPubkeys is the instruction-independent fetch entry point, for when
// the caller already knows the exact account set.
func (store *AccountStore) FromPubkeys(ctx context.Context, pubkeys []solana.PublicKey) error {
	store.populated = true

	keys := make([]solana.PublicKey, len(pubkeys))
	copy(keys, pubkeys)
	keys = util.DedupePubkeys(keys)

	absent, err := store.cache.fillMissing(ctx, store.client, store.commitment, keys)
	if err != nil {
		return err
	}

	if len(absent) == 0 {
		return nil
	}
	if !store.allowMissing {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, absent[0])
	}
	for _, pk := range absent {
		klog.Infof("no account %s on chain, using empty account owned by the system program", pk)
		store.cache.insert(&accounts.Account{Key: pk, Owner: systemProgramAddr})
	}
	return nil
}

// Accounts enumerates the cached snapshots in pubkey order. Two calls
// without an intervening fetch yield the same sequence.
func (store *AccountStore) Accounts() []*accounts.Account {
	out := make([]*accounts.Account, 0, store.cache.len())
	for _, pk := range store.cache.pubkeysSorted() {
		acct, _ := store.cache.get(pk)
		out = append(out, acct)
	}
	return out
}

// Contains reports whether a pubkey is cached (seeded, fetched or
// synthesized).
func (store *AccountStore) Contains(pubkey solana.PublicKey) bool {
	return store.cache.contains(pubkey)
}

// AddAccounts registers every cached account with the harness.
func (store *AccountStore) AddAccounts(h harness.ExecutionHarness) error {
	for _, pk := range store.cache.pubkeysSorted() {
		acct, _ := store.cache.get(pk)
		if err := h.RegisterAccount(pk, acct); err != nil {
			return err
		}
	}
	return nil
}

// AddPrograms routes every cached executable account through loader
// classification, ELF extraction and validation, then registers the
// payload with the harness. Program-data accounts for LoaderV3 programs
// are resolved through the cache with one batched fetch for the whole
// call. On failure the call stops; programs registered earlier in the
// iteration stay registered.
func (store *AccountStore) AddPrograms(ctx context.Context, h harness.ExecutionHarness) error {
	type program struct {
		acct       *accounts.Account
		convention loader.Convention
	}

	var programs []program
	var programDataKeys []solana.PublicKey

	for _, pk := range store.cache.pubkeysSorted() {
		acct, _ := store.cache.get(pk)
		if !acct.Executable {
			continue
		}
		convention := loader.OwnerConvention(acct.Owner)
		if convention == loader.ConventionNone {
			// owned by a native loader or something else entirely
			continue
		}
		programs = append(programs, program{acct: acct, convention: convention})

		if convention == loader.ConventionLoaderV3 {
			// Tolerate parse failures here; the registration loop
			// below surfaces them in iteration order.
			if addr, err := loader.ProgramDataAddress(acct.Data); err == nil {
				programDataKeys = append(programDataKeys, addr)
			}
		}
	}

	// One round trip for all program-data accounts of this call.
	absent := make(map[solana.PublicKey]struct{})
	if len(programDataKeys) > 0 {
		missing, err := store.cache.fillMissing(ctx, store.client, store.commitment, util.DedupePubkeys(programDataKeys))
		if err != nil {
			return err
		}
		for _, pk := range missing {
			absent[pk] = struct{}{}
		}
	}

	for _, p := range programs {
		pk := p.acct.Key

		var elf []byte
		switch p.convention {
		case loader.ConventionLoaderV2:
			elf = loader.ProgramElf(p.acct.Data)

		case loader.ConventionLoaderV3:
			addr, err := loader.ProgramDataAddress(p.acct.Data)
			if err != nil {
				return fmt.Errorf("program %s: %w", pk, err)
			}

			pdAcct, ok := store.cache.get(addr)
			if _, miss := absent[addr]; miss || !ok {
				if store.allowMissing {
					klog.Infof("skipping program %s: program-data account %s not found", pk, addr)
					continue
				}
				return fmt.Errorf("%w: program %s: program-data account %s not found", loader.ErrInvalidProgramData, pk, addr)
			}

			elf, err = loader.ProgramDataElf(pdAcct.Data)
			if err != nil {
				return fmt.Errorf("program %s: %w", pk, err)
			}
		}

		if !store.skipValidation {
			if err := loader.ValidateElf(elf); err != nil {
				return fmt.Errorf("program %s: %w", pk, err)
			}
		}

		if err := h.RegisterProgram(pk, p.convention, elf); err != nil {
			return err
		}
		klog.Infof("registered program %s (%s, %d byte elf)", pk, p.convention, len(elf))
	}

	return nil
}

// WithSyncedSlot fetches the current ledger slot and advances the harness
// to it. No retry; a transport failure surfaces as ErrFetch.
func (store *AccountStore) WithSyncedSlot(ctx context.Context, h harness.ExecutionHarness) error {
	slot, err := store.client.GetSlot(ctx, store.commitment)
	if err != nil {
		return err
	}
	klog.Infof("syncing harness to slot %d", slot)
	return h.AdvanceToSlot(slot)
}
