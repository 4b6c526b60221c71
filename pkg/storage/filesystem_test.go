package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("bills/b-1/page.html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.True(t, store.Exists("bills/b-1/page.html"))

	f, err := store.Open("bills/b-1/page.html")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "<html></html>", string(body))

	require.NoError(t, store.DeleteDir("bills/b-1"))
	assert.False(t, store.Exists("bills/b-1/page.html"))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", []byte("x"))
	assert.Error(t, err)
	_, err = store.Open("/etc/passwd")
	assert.Error(t, err)
	assert.Error(t, store.DeleteDir("."))
}
