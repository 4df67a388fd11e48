package fixture

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/klauspost/compress/zstd"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
	"github.com/Overclock-Validator/svm-fixtures/pkg/base58"
	"github.com/Overclock-Validator/svm-fixtures/pkg/util"
)

// Fixture snapshots capture a store's cache so mainnet state fetched once
// can be replayed offline. The file is JSON, or a compact binary encoding
// for .bin paths; paths ending in .zst are zstd-compressed.

const fixtureVersion = 1

type fixtureAccount struct {
	Lamports   uint64 `json:"lamports"`
	Data       string `json:"data"` // base64
	Owner      string `json:"owner"`
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

type fixtureMetadata struct {
	Slot      uint64 `json:"slot,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	RpcUrl    string `json:"rpcUrl,omitempty"`
}

type fixtureFile struct {
	Version  uint8                     `json:"version"`
	Metadata *fixtureMetadata          `json:"metadata,omitempty"`
	Accounts map[string]fixtureAccount `json:"accounts"`
}

// LoadFixture reads a fixture snapshot. JSON by default; .bin files use
// the compact binary encoding. The result is sorted by pubkey.
func LoadFixture(path string) ([]*accounts.Account, error) {
	raw, err := readFixtureBytes(path)
	if err != nil {
		return nil, err
	}

	if isBinaryFixture(path) {
		accts, err := loadBinaryFixture(raw)
		if err != nil {
			return nil, err
		}
		sortAccounts(accts)
		return accts, nil
	}

	var file fixtureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
	}
	if file.Version != fixtureVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFixture, file.Version)
	}

	accts := make([]*accounts.Account, 0, len(file.Accounts))
	for pkStr, fa := range file.Accounts {
		pk, err := base58.DecodeFromString(pkStr)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pubkey %q: %s", ErrInvalidFixture, pkStr, err)
		}
		owner, err := base58.DecodeFromString(fa.Owner)
		if err != nil {
			return nil, fmt.Errorf("%w: bad owner %q for %s: %s", ErrInvalidFixture, fa.Owner, pkStr, err)
		}
		data, err := base64.StdEncoding.DecodeString(fa.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: bad account data for %s: %s", ErrInvalidFixture, pkStr, err)
		}

		accts = append(accts, &accounts.Account{
			Key:        solana.PublicKeyFromBytes(pk[:]),
			Lamports:   fa.Lamports,
			Data:       data,
			Owner:      owner,
			Executable: fa.Executable,
			RentEpoch:  fa.RentEpoch,
		})
	}

	sortAccounts(accts)
	return accts, nil
}

func sortAccounts(accts []*accounts.Account) {
	sort.SliceStable(accts, func(i, j int) bool {
		return util.PubkeyCmp(accts[i].Key, accts[j].Key)
	})
}

// SaveFixture writes a fixture snapshot of the given accounts, creating
// parent directories as needed.
func SaveFixture(accts []*accounts.Account, path string) error {
	if isBinaryFixture(path) {
		raw, err := saveBinaryFixture(accts)
		if err != nil {
			return err
		}
		return writeFixtureBytes(path, raw)
	}

	file := fixtureFile{
		Version: fixtureVersion,
		Metadata: &fixtureMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Accounts: make(map[string]fixtureAccount, len(accts)),
	}

	for _, acct := range accts {
		file.Accounts[acct.Key.String()] = fixtureAccount{
			Lamports:   acct.Lamports,
			Data:       base64.StdEncoding.EncodeToString(acct.Data),
			Owner:      base58.Encode(acct.Owner[:]),
			Executable: acct.Executable,
			RentEpoch:  acct.RentEpoch,
		}
	}

	raw, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return err
	}
	return writeFixtureBytes(path, raw)
}

// SaveFixture snapshots the store's current cache.
func (store *AccountStore) SaveFixture(path string) error {
	return SaveFixture(store.Accounts(), path)
}

func isBinaryFixture(path string) bool {
	return strings.HasSuffix(path, ".bin") || strings.HasSuffix(path, ".bin.zst")
}

// Binary fixtures: uint32 version, uint64 count, then per account a 32
// byte pubkey followed by the account's bin encoding.
func saveBinaryFixture(accts []*accounts.Account) ([]byte, error) {
	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	if err := encoder.WriteUint32(fixtureVersion, bin.LE); err != nil {
		return nil, err
	}
	if err := encoder.WriteUint64(uint64(len(accts)), bin.LE); err != nil {
		return nil, err
	}
	for _, acct := range accts {
		if err := encoder.WriteBytes(acct.Key.Bytes(), false); err != nil {
			return nil, err
		}
		if err := acct.MarshalWithEncoder(encoder); err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}

func loadBinaryFixture(raw []byte) ([]*accounts.Account, error) {
	decoder := bin.NewBinDecoder(raw)

	version, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
	}
	if version != fixtureVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFixture, version)
	}

	count, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
	}

	accts := make([]*accounts.Account, 0, count)
	for i := uint64(0); i < count; i++ {
		pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
		}

		acct := new(accounts.Account)
		if err := acct.UnmarshalWithDecoder(decoder); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
		}
		acct.Key = solana.PublicKeyFromBytes(pkBytes)
		accts = append(accts, acct)
	}
	return accts, nil
}

func readFixtureBytes(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return raw, nil
	}

	reader, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFixture, err)
	}
	return decompressed, nil
}

func writeFixtureBytes(path string, data []byte) error {
	if strings.HasSuffix(path, ".zst") {
		var buf bytes.Buffer
		writer, err := zstd.NewWriter(&buf)
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
