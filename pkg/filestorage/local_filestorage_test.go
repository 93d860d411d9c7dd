package filestorage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)

	path, err := storage.Save(ctx, strings.NewReader("договор"), "Договор.PDF", "documents/7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "documents/7/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	rc, err := storage.Open(ctx, path)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "договор", string(content))

	require.NoError(t, storage.Delete(ctx, path))
	_, err = storage.Open(ctx, path)
	assert.Error(t, err)

	// повторное удаление не считается ошибкой
	assert.NoError(t, storage.Delete(ctx, path))
}

func TestLocalFileStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, storage.Delete(ctx, "../outside.txt"), ErrInvalidPath)
}
