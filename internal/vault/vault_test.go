package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) (*Vault, string, string) {
	t.Helper()
	dir := t.TempDir()
	store := filepath.Join(dir, "vault.json")
	key := filepath.Join(dir, "vault.key")
	v, err := Create(store, key)
	require.NoError(t, err)
	return v, store, key
}

func TestCreate(t *testing.T) {
	v, store, key := newTestVault(t)

	assert.Equal(t, []string{"bank", "common", "document"}, v.Categories())

	info, err := os.Stat(key)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "key file must be owner-only")

	info, err = os.Stat(store)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "store must be owner-only")
}

func TestCreate_RefusesExisting(t *testing.T) {
	_, store, key := newTestVault(t)

	_, err := Create(store, key)
	assert.Error(t, err)
}

func TestAddAndPasswords(t *testing.T) {
	v, store, key := newTestVault(t)

	require.NoError(t, v.Add("bank", "hunter2"))
	require.NoError(t, v.Add("bank", "letmein"))
	require.NoError(t, v.Add("common", "123456"))

	// A fresh Open with the same key sees the same passwords.
	v2, err := Open(store, key)
	require.NoError(t, err)

	pws, err := v2.Passwords("bank")
	require.NoError(t, err)
	assert.Equal(t, []string{"hunter2", "letmein"}, pws, "insertion order within a category")

	pws, err = v2.Passwords("common", "bank")
	require.NoError(t, err)
	assert.Equal(t, []string{"123456", "hunter2", "letmein"}, pws, "category order as given")
}

func TestPasswords_AllAndDedup(t *testing.T) {
	v, _, _ := newTestVault(t)

	require.NoError(t, v.Add("bank", "shared"))
	require.NoError(t, v.Add("common", "shared"))
	require.NoError(t, v.Add("common", "onlyhere"))

	pws, err := v.Passwords()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "onlyhere"}, pws, "duplicates keep their first position")
}

func TestPasswords_UnknownCategory(t *testing.T) {
	v, _, _ := newTestVault(t)

	_, err := v.Passwords("nope")
	assert.ErrorContains(t, err, `no category "nope"`)
}

func TestAdd_CreatesCategory(t *testing.T) {
	v, _, _ := newTestVault(t)

	require.NoError(t, v.Add("tax", "fy2024"))
	assert.Contains(t, v.Categories(), "tax")

	pws, err := v.Passwords("tax")
	require.NoError(t, err)
	assert.Equal(t, []string{"fy2024"}, pws)
}

func TestAdd_RejectsEmpty(t *testing.T) {
	v, _, _ := newTestVault(t)

	assert.Error(t, v.Add("", "pw"))
	assert.Error(t, v.Add("bank", ""))
}

func TestOpen_WrongKey(t *testing.T) {
	v, store, _ := newTestVault(t)
	require.NoError(t, v.Add("bank", "hunter2"))

	otherKey := filepath.Join(t.TempDir(), "other.key")
	require.NoError(t, WriteNewKey(otherKey))

	v2, err := Open(store, otherKey)
	require.NoError(t, err, "opening the store succeeds, decryption must not")

	_, err = v2.Passwords("bank")
	assert.Error(t, err, "wrong key must never yield passwords")
}

func TestPasswords_TamperedEntry(t *testing.T) {
	v, store, key := newTestVault(t)
	require.NoError(t, v.Add("bank", "hunter2"))

	data, err := os.ReadFile(store)
	require.NoError(t, err)
	// Flip a character inside the sealed entry.
	tampered := strings.Replace(string(data), ".", "x", 1)
	require.NoError(t, os.WriteFile(store, []byte(tampered), 0o600))

	v2, err := Open(store, key)
	require.NoError(t, err)
	_, err = v2.Passwords("bank")
	assert.Error(t, err)
}

func TestStoreNeverHoldsPlaintext(t *testing.T) {
	v, store, _ := newTestVault(t)
	require.NoError(t, v.Add("bank", "supersecretpw"))

	data, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "supersecretpw")
}

func TestLookup(t *testing.T) {
	v, _, _ := newTestVault(t)
	require.NoError(t, v.Add("bank", "hunter2"))
	require.NoError(t, v.Add("common", "123456"))

	lookup := v.Lookup()
	assert.Equal(t, []string{"hunter2"}, lookup("bank"))
	assert.Equal(t, []string{"123456", "hunter2"}, lookup("common", "bank"))
	assert.Nil(t, lookup("missing"), "unknown category yields no candidates")
}

func TestWriteNewKey_RefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.key")
	require.NoError(t, WriteNewKey(path))
	assert.Error(t, WriteNewKey(path))
}

func TestSealOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "k")
	require.NoError(t, WriteNewKey(keyPath))
	kr, err := loadKey(keyPath)
	require.NoError(t, err)

	sealed, err := kr.seal([]byte("pw"))
	require.NoError(t, err)
	assert.Contains(t, sealed, ".", "sealed form is ciphertext.signature")

	plain, err := kr.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "pw", string(plain))

	// Two seals of the same plaintext differ (random nonce), both open.
	sealed2, err := kr.seal([]byte("pw"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, sealed2)
}
