package loader

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validElf(size int) []byte {
	data := make([]byte, size)
	copy(data, elfMagic)
	return data
}

func programState(stateType uint32, programDataAddr solana.PublicKey) []byte {
	data := make([]byte, upgradeableLoaderSizeOfProgram)
	binary.LittleEndian.PutUint32(data, stateType)
	copy(data[4:], programDataAddr.Bytes())
	return data
}

func TestOwnerConvention(t *testing.T) {
	assert.Equal(t, ConventionLoaderV2, OwnerConvention(BpfLoaderAddr))
	assert.Equal(t, ConventionLoaderV3, OwnerConvention(BpfLoaderUpgradeableAddr))

	var tokenProgram [32]byte
	tokenProgram[0] = 0xaa
	assert.Equal(t, ConventionNone, OwnerConvention(tokenProgram))
}

func TestProgramElf_Verbatim(t *testing.T) {
	elf := validElf(128)
	assert.Equal(t, elf, ProgramElf(elf))
}

func TestProgramDataAddress_Success(t *testing.T) {
	programDataAddr := solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")

	addr, err := ProgramDataAddress(programState(upgradeableLoaderStateTypeProgram, programDataAddr))
	require.NoError(t, err)
	assert.Equal(t, programDataAddr, addr)
}

func TestProgramDataAddress_TooShort_Failure(t *testing.T) {
	_, err := ProgramDataAddress(make([]byte, upgradeableLoaderSizeOfProgram-1))
	assert.ErrorIs(t, err, ErrMalformedProgram)
}

func TestProgramDataAddress_WrongStateType_Failure(t *testing.T) {
	var addr solana.PublicKey
	_, err := ProgramDataAddress(programState(upgradeableLoaderStateTypeBuffer, addr))
	assert.ErrorIs(t, err, ErrMalformedProgram)
}

func TestProgramDataElf_SlicesAtFixedOffset(t *testing.T) {
	elf := validElf(256)
	acctData := make([]byte, ProgramDataMetadataSize, ProgramDataMetadataSize+len(elf))
	acctData = append(acctData, elf...)

	payload, err := ProgramDataElf(acctData)
	require.NoError(t, err)
	assert.Equal(t, elf, payload)
}

func TestProgramDataElf_MetadataOnly_EmptyPayload(t *testing.T) {
	payload, err := ProgramDataElf(make([]byte, ProgramDataMetadataSize))
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestProgramDataElf_TooShort_Failure(t *testing.T) {
	_, err := ProgramDataElf(make([]byte, ProgramDataMetadataSize-1))
	assert.ErrorIs(t, err, ErrInvalidProgramData)
}

func TestValidateElf_Success(t *testing.T) {
	assert.NoError(t, ValidateElf(validElf(elf64HeaderSize)))
	assert.NoError(t, ValidateElf(validElf(4096)))
}

func TestValidateElf_BadMagic_Failure(t *testing.T) {
	data := validElf(elf64HeaderSize)
	data[0] = 0x7e
	assert.ErrorIs(t, ValidateElf(data), ErrBadElf)
}

func TestValidateElf_TooShort_Failure(t *testing.T) {
	assert.ErrorIs(t, ValidateElf(validElf(elf64HeaderSize-1)), ErrBadElf)
	assert.ErrorIs(t, ValidateElf(nil), ErrBadElf)
}
