// Package loader interprets the two on-chain program storage conventions
// and extracts the raw ELF payload from program accounts.
package loader

import (
	"github.com/Overclock-Validator/svm-fixtures/pkg/base58"
)

const BpfLoaderAddrStr = "BPFLoader2111111111111111111111111111111111"

var BpfLoaderAddr = base58.MustDecodeFromString(BpfLoaderAddrStr)

const BpfLoaderUpgradeableAddrStr = "BPFLoaderUpgradeab1e11111111111111111111111"

var BpfLoaderUpgradeableAddr = base58.MustDecodeFromString(BpfLoaderUpgradeableAddrStr)

// Convention is the storage layout of an executable account, determined
// solely by the account's owner.
type Convention uint32

const (
	// ConventionNone marks accounts not owned by a supported loader.
	ConventionNone Convention = iota

	// ConventionLoaderV2: the account data is the ELF, verbatim.
	ConventionLoaderV2

	// ConventionLoaderV3: the account data points at a separate
	// program-data account which holds the ELF after loader metadata.
	ConventionLoaderV3
)

func (c Convention) String() string {
	switch c {
	case ConventionLoaderV2:
		return "LoaderV2"
	case ConventionLoaderV3:
		return "LoaderV3"
	default:
		return "NotAProgramLoader"
	}
}

func OwnerConvention(owner [32]byte) Convention {
	switch owner {
	case BpfLoaderAddr:
		return ConventionLoaderV2
	case BpfLoaderUpgradeableAddr:
		return ConventionLoaderV3
	default:
		return ConventionNone
	}
}
