package fixture

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/svm-fixtures/pkg/util"
)

// CollectPubkeys unions the account metas referenced by the given
// instructions into a deduplicated pubkey set. The result is sorted, so
// it is independent of instruction order.
func CollectPubkeys(instrs []solana.Instruction) []solana.PublicKey {
	var pubkeys []solana.PublicKey
	for _, instr := range instrs {
		for _, meta := range instr.Accounts() {
			pubkeys = append(pubkeys, meta.PublicKey)
		}
	}
	return util.DedupePubkeys(pubkeys)
}
