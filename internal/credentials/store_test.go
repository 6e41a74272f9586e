package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghx/cli/internal/keyring"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	require.NoError(t, store.Set("github.com", "monalisa", "ghp_abc"))
	require.NoError(t, store.Set("github.com", ActiveSlot, "ghp_abc"))

	got, err := store.Get("github.com", "monalisa")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", got)

	got, err = store.Get("github.com", ActiveSlot)
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", got)
}

func TestKeyringStoreMissingSlotIsEmpty(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	got, err := store.Get("github.com", "ghost")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKeyringStoreDelete(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	require.NoError(t, store.Set("ghe.io", "monalisa", "ghp_abc"))
	require.NoError(t, store.Delete("ghe.io", "monalisa"))

	got, err := store.Get("ghe.io", "monalisa")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete("ghe.io", "monalisa"))
}

func TestKeyringStoreNormalizesHost(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	require.NoError(t, store.Set("https://GitHub.com/", "monalisa", "ghp_abc"))

	got, err := store.Get("github.com", "monalisa")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", got)
}

func TestKeyringStoreSource(t *testing.T) {
	assert.Equal(t, "keyring", NewKeyringStore().Source())
}
