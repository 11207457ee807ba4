package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AttachmentStore {
	t.Helper()
	store, err := NewAttachmentStore(t.TempDir(), 1024, []string{".pdf", ".png"})
	require.NoError(t, err)
	return store
}

func TestAttachmentSaveRenamesFile(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save("complaint letter.pdf", 11, strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relPath, "grievance-"))
	assert.True(t, strings.HasSuffix(relPath, ".pdf"))
	assert.NotContains(t, relPath, "complaint")

	content, err := os.ReadFile(store.Path(relPath))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestAttachmentSaveRejectsExtension(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("malware.exe", 4, strings.NewReader("data"))
	require.Error(t, err)
}

func TestAttachmentSaveRejectsOversize(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("big.pdf", 2048, strings.NewReader("data"))
	require.Error(t, err)

	// declared size lies; the write itself is still bounded
	payload := strings.Repeat("x", 2048)
	_, err = store.Save("sneaky.pdf", 10, strings.NewReader(payload))
	require.Error(t, err)
}

func TestAttachmentDelete(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save("note.png", 4, strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(relPath))
	_, statErr := os.Stat(store.Path(relPath))
	assert.True(t, os.IsNotExist(statErr))

	// deleting twice is fine
	require.NoError(t, store.Delete(relPath))
	require.NoError(t, store.Delete(""))
}

func TestAttachmentOpen(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save("note.png", 4, strings.NewReader("data"))
	require.NoError(t, err)

	file, err := store.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, filepath.Base(store.Path(relPath)), filepath.Base(file.Name()))
}
