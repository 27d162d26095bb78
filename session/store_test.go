package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	// Absent entry reads as empty, not as an error.
	stored, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, store.Save("0x8ba1f109551bD432803012645Ac136ddd64DBA72"))
	stored, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", stored)

	require.NoError(t, store.Clear())
	stored, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestBoltStoreClearOnEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Clear())
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("0x8ba1f109551bD432803012645Ac136ddd64DBA72"))
	require.NoError(t, store.Close())

	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", stored)
}
