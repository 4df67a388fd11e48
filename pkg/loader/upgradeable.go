package loader

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	// ErrMalformedProgram: the program account's own data is inconsistent
	// with its declared loader convention.
	ErrMalformedProgram = errors.New("ErrMalformedProgram")

	// ErrInvalidProgramData: the referenced program-data account is absent
	// or too short to contain a payload.
	ErrInvalidProgramData = errors.New("ErrInvalidProgramData")
)

// upgradeable loader account state discriminants
const (
	upgradeableLoaderStateTypeUninitialized = iota
	upgradeableLoaderStateTypeBuffer
	upgradeableLoaderStateTypeProgram
	upgradeableLoaderStateTypeProgramData
)

const upgradeableLoaderSizeOfProgram = 36

// ProgramDataMetadataSize is the loader-owned prefix of a program-data
// account: a uint32 discriminant, a uint64 deployment slot and an optional
// upgrade authority. The ELF starts immediately after it.
const ProgramDataMetadataSize = 45

// ProgramElf returns the ELF bytes of a LoaderV2 program account. The
// account data is the ELF verbatim, offset 0.
func ProgramElf(data []byte) []byte {
	return data
}

// ProgramDataAddress reads the program-data account pubkey out of a
// LoaderV3 program account's state.
func ProgramDataAddress(programAcctData []byte) (solana.PublicKey, error) {
	if len(programAcctData) < upgradeableLoaderSizeOfProgram {
		return solana.PublicKey{}, fmt.Errorf("%w: program state is %d bytes, expected %d", ErrMalformedProgram, len(programAcctData), upgradeableLoaderSizeOfProgram)
	}

	decoder := bin.NewBinDecoder(programAcctData)

	stateType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrMalformedProgram, err)
	}
	if stateType != upgradeableLoaderStateTypeProgram {
		return solana.PublicKey{}, fmt.Errorf("%w: state discriminant %d, expected Program (%d)", ErrMalformedProgram, stateType, upgradeableLoaderStateTypeProgram)
	}

	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrMalformedProgram, err)
	}

	return solana.PublicKeyFromBytes(pkBytes), nil
}

// ProgramDataElf slices the ELF out of a program-data account's data,
// skipping the fixed-size loader metadata prefix.
func ProgramDataElf(programDataAcctData []byte) ([]byte, error) {
	if len(programDataAcctData) < ProgramDataMetadataSize {
		return nil, fmt.Errorf("%w: program-data account is %d bytes, metadata alone is %d", ErrInvalidProgramData, len(programDataAcctData), ProgramDataMetadataSize)
	}
	return programDataAcctData[ProgramDataMetadataSize:], nil
}
