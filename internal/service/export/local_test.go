package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

func TestLocalStorePutWritesNestedKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	location, err := store.Put(context.Background(),
		"corpora/tpl/batch.jsonl", []byte("{\"a\":1}\n"), contentTypeJSONL)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(location))

	body, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(body))
}

func TestLocalStorePresignGetReturnsFileURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	location, err := store.Put(ctx, "corpora/tpl/batch.jsonl", []byte("x\n"), contentTypeJSONL)
	require.NoError(t, err)

	url, err := store.PresignGet(ctx, "corpora/tpl/batch.jsonl", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "file://"+location, url)
}

func TestLocalStorePresignGetMissingKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.PresignGet(context.Background(), "corpora/absent.jsonl", time.Hour)
	var nferr *domain.NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.jsonl", "a/../../outside.jsonl"} {
		_, err := store.Put(context.Background(), key, []byte("x"), contentTypeJSONL)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, "key %q", key)
	}
}

func TestLocalStoreCreatesRootDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "spool", "exports")
	_, err := NewLocalStore(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewLocalStoreEmptyDirRejected(t *testing.T) {
	_, err := NewLocalStore("")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
