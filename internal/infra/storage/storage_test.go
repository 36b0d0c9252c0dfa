package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acct.r2.cloudflarestorage.com", sanitizeEndpoint("https://acct.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}

func TestMemoryStorage_PutGet(t *testing.T) {
	store := NewMemoryStorage()
	obj, err := store.Put(context.Background(), "reports/1/a.csv", []byte("date\n"), "text/csv")
	require.NoError(t, err)
	require.Equal(t, int64(5), obj.Size)
	require.NotEmpty(t, obj.ETag)

	data, mime, ok := store.Get("reports/1/a.csv")
	require.True(t, ok)
	require.Equal(t, "text/csv", mime)
	require.Equal(t, "date\n", string(data))
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage("http://localhost:9000", "k", "s", "", "auto", nil)
	require.Error(t, err)
}
