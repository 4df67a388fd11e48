package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/svm-fixtures/pkg/accounts"
	"github.com/Overclock-Validator/svm-fixtures/pkg/loader"
)

func TestFixture_SaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures", "accounts.json")

	saved := []*accounts.Account{
		plainAccount(1),
		loaderV2Program(0x10, validElf(64)),
	}
	require.NoError(t, SaveFixture(saved, path))

	loaded, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// LoadFixture returns pubkey order; inputs here already sort that way
	assert.Equal(t, saved[0], loaded[0])
	assert.Equal(t, saved[1], loaded[1])
}

func TestFixture_SaveLoad_Zstd(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "accounts.json")
	compressed := filepath.Join(dir, "accounts.json.zst")

	saved := []*accounts.Account{loaderV2Program(0x10, validElf(4096))}
	require.NoError(t, SaveFixture(saved, plain))
	require.NoError(t, SaveFixture(saved, compressed))

	plainInfo, err := os.Stat(plain)
	require.NoError(t, err)
	compressedInfo, err := os.Stat(compressed)
	require.NoError(t, err)
	assert.Less(t, compressedInfo.Size(), plainInfo.Size())

	loaded, err := LoadFixture(compressed)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, saved[0], loaded[0])
}

func TestFixture_SaveLoad_Binary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.bin.zst")

	saved := []*accounts.Account{
		plainAccount(1),
		loaderV2Program(0x10, validElf(128)),
	}
	require.NoError(t, SaveFixture(saved, path))

	loaded, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, saved[0], loaded[0])
	assert.Equal(t, saved[1], loaded[1])
}

func TestFixture_UnsupportedVersion_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 9, "accounts": {}}`), 0o644))

	_, err := LoadFixture(path)
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestFixture_MalformedJson_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := LoadFixture(path)
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestFixture_BadPubkey_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	content := `{"version": 1, "accounts": {"not-base58-0OIl": {"lamports": 1, "data": "", "owner": "11111111111111111111111111111111", "executable": false, "rentEpoch": 0}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadFixture(path)
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestStore_SaveFixture_SeedAnotherStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")

	origin := NewAccountStoreWithClient(new(mockLedgerClient), DefaultCommitment).
		WithAccounts([]*accounts.Account{loaderV2Program(0x10, validElf(64))})
	require.NoError(t, origin.SaveFixture(path))

	replayStore := NewAccountStoreWithClient(new(mockLedgerClient), DefaultCommitment)
	require.NoError(t, replayStore.WithFixture(path))

	require.True(t, replayStore.Contains(testPubkey(0x10)))
	cached := replayStore.Accounts()
	require.Len(t, cached, 1)
	assert.Equal(t, loader.ConventionLoaderV2, loader.OwnerConvention(cached[0].Owner))
}
