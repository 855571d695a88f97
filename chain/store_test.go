package chain

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	c := buildTestChain(5, 150)
	assert.NoError(t, store.Save(c))

	loaded, err := store.Load(150)
	assert.NoError(t, err)
	assert.Equal(t, c.Len(), loaded.Len())
	assert.LessOrEqual(t, loaded.Len(), 150)

	wantTip, _ := c.TipHash()
	gotTip, _ := loaded.TipHash()
	assert.Equal(t, wantTip, gotTip)
}

func TestStoreChecksumMismatchDiscardsChain(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	c := buildTestChain(3, 150)
	assert.NoError(t, store.Save(c))

	// Corrupt the payload in place, leaving the old checksum sidecar.
	data, err := os.ReadFile(store.path)
	assert.NoError(t, err)
	data[10] ^= 0xff
	assert.NoError(t, os.WriteFile(store.path, data, 0o600))

	_, err = store.Load(150)
	assert.Equal(t, ErrChecksumMismatch, err)
}

func TestStoreLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	_, err := store.Load(150)
	assert.Error(t, err)
}
