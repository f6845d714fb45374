package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("", "", "", "", t.TempDir(), true)
	require.NoError(t, err)
	return store
}

func TestNewStoreRequiresLocalDir(t *testing.T) {
	_, err := NewStore("", "", "", "", "", true)
	assert.Error(t, err)
}

func TestNewStoreRequiresS3Settings(t *testing.T) {
	_, err := NewStore("", "", "", "", t.TempDir(), false)
	assert.Error(t, err)
}

func TestWriteReadRoundtrip(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	key, err := store.Write(ctx, "demo", "knowledgebase", "a.txt", []byte("hello"))
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, filepath.Join("demo", "knowledgebase", "a.txt"), *key)

	content, err := store.Read(ctx, "demo", "knowledgebase", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestWriteNormalizesNFC(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	// NFD（濁点分離）で書いてもNFCで保存される
	nfd := "パン" // パン
	_, err := store.Write(ctx, "demo", "knowledgebase", "b.txt", []byte(nfd))
	require.NoError(t, err)
	content, err := store.Read(ctx, "demo", "knowledgebase", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "パン", string(content))
}

func TestWriteStripsPathElements(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	key, err := store.Write(ctx, "demo", "knowledgebase", "../../../evil.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("demo", "knowledgebase", "evil.txt"), *key)
}

func TestReadMissingFile(t *testing.T) {
	store := newLocalStore(t)
	_, err := store.Read(context.Background(), "demo", "knowledgebase", "missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListFiltersAndSorts(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	_, err := store.Write(ctx, "demo", "knowledgebase", "b.txt", []byte("x"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "demo", "knowledgebase", "a.md", []byte("x"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "demo", "knowledgebase", "c.pdf", []byte("x"))
	require.NoError(t, err)

	names, err := store.List(ctx, "demo", "knowledgebase", TextFileRegexp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.txt"}, names)

	all, err := store.List(ctx, "demo", "knowledgebase", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListMissingCollection(t *testing.T) {
	store := newLocalStore(t)
	names, err := store.List(context.Background(), "nothing", "knowledgebase", nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDel(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	_, err := store.Write(ctx, "demo", "knowledgebase", "a.txt", []byte("x"))
	require.NoError(t, err)
	require.True(t, store.IsExist(ctx, "demo", "knowledgebase", "a.txt"))

	require.NoError(t, store.Del(ctx, "demo", "knowledgebase", "a.txt"))
	assert.False(t, store.IsExist(ctx, "demo", "knowledgebase", "a.txt"))

	// 存在しないファイルの削除はエラーにしない
	assert.NoError(t, store.Del(ctx, "demo", "knowledgebase", "a.txt"))
}

func TestDelCollection(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	_, err := store.Write(ctx, "demo", "knowledgebase", "a.txt", []byte("x"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "demo", "output", "reports.json", []byte("{}"))
	require.NoError(t, err)

	require.NoError(t, store.DelCollection(ctx, "demo"))
	names, err := store.List(ctx, "demo", "knowledgebase", nil)
	require.NoError(t, err)
	assert.Empty(t, names)

	assert.Error(t, store.DelCollection(ctx, ""))
}
