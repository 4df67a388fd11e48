// Package harness defines the execution-harness boundary the fixture
// assembler feeds, plus an in-memory implementation for hermetic tests.
package harness

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
	"github.com/Overclock-Validator/svm-fixtures/pkg/loader"
)

// ExecutionHarness is the engine instructions are replayed against. The
// fixture assembler only ever pushes state into it.
type ExecutionHarness interface {
	RegisterAccount(pubkey solana.PublicKey, acct *accounts.Account) error

	// RegisterProgram hands the harness an extracted, validated ELF
	// together with the loader convention it was deployed under.
	RegisterProgram(pubkey solana.PublicKey, convention loader.Convention, elf []byte) error

	AdvanceToSlot(slot uint64) error
}

// Program is a registered executable as the in-memory harness holds it.
type Program struct {
	Key        solana.PublicKey
	Convention loader.Convention
	Elf        []byte
}

// MemHarness records registrations and the current slot. It stands in for
// a real SVM harness in tests.
type MemHarness struct {
	Accounts map[solana.PublicKey]*accounts.Account
	Programs map[solana.PublicKey]*Program
	Slot     uint64
}

func NewMemHarness() *MemHarness {
	return &MemHarness{
		Accounts: make(map[solana.PublicKey]*accounts.Account),
		Programs: make(map[solana.PublicKey]*Program),
	}
}

func (h *MemHarness) RegisterAccount(pubkey solana.PublicKey, acct *accounts.Account) error {
	h.Accounts[pubkey] = acct.Clone()
	return nil
}

func (h *MemHarness) RegisterProgram(pubkey solana.PublicKey, convention loader.Convention, elf []byte) error {
	elfCopy := make([]byte, len(elf))
	copy(elfCopy, elf)
	h.Programs[pubkey] = &Program{Key: pubkey, Convention: convention, Elf: elfCopy}
	return nil
}

func (h *MemHarness) AdvanceToSlot(slot uint64) error {
	h.Slot = slot
	return nil
}
