package filestorage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabaseStub(t *testing.T) (*httptest.Server, map[string]string) {
	t.Helper()
	var mu sync.Mutex
	objects := make(map[string]string)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer service-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/docs/")
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			objects[key] = string(body)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			body, ok := objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(body))
		case http.MethodDelete:
			if _, ok := objects[key]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(objects, key)
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, objects
}

func TestSupabaseFileStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	srv, objects := newSupabaseStub(t)

	storage, err := NewSupabaseFileStorage(srv.URL, "service-key", "docs")
	require.NoError(t, err)

	path, err := storage.Save(ctx, strings.NewReader("акт"), "act.xlsx", "documents/3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "documents/3/"))
	assert.Len(t, objects, 1)

	rc, err := storage.Open(ctx, path)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "акт", string(content))

	require.NoError(t, storage.Delete(ctx, path))
	assert.Empty(t, objects)
	assert.NoError(t, storage.Delete(ctx, path))

	_, err = storage.Open(ctx, path)
	assert.Error(t, err)
}

func TestSupabaseFileStorage_Validation(t *testing.T) {
	_, err := NewSupabaseFileStorage("", "key", "docs")
	assert.Error(t, err)
	_, err = NewSupabaseFileStorage("http://localhost", "", "docs")
	assert.Error(t, err)

	storage, err := NewSupabaseFileStorage("http://localhost", "key", "docs")
	require.NoError(t, err)
	_, err = storage.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
