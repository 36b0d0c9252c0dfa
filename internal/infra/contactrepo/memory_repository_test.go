package contactrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/contact"
)

func TestMemoryRepositoryMarkNotified(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, contact.Message{ID: "m1", Reference: "REF-1", Status: contact.StatusReceived}))

	at := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	ok, err := repo.MarkNotified(ctx, "m1", at)
	require.NoError(t, err)
	require.True(t, ok)

	msg, found := repo.Get("m1")
	require.True(t, found)
	require.Equal(t, contact.StatusNotified, msg.Status)
	require.NotNil(t, msg.NotifiedAt)
	require.Equal(t, at, *msg.NotifiedAt)
}

func TestMemoryRepositoryMarkNotifiedUnknown(t *testing.T) {
	repo := NewMemoryRepository()

	ok, err := repo.MarkNotified(context.Background(), "missing", time.Now())
	require.NoError(t, err)
	require.False(t, ok)
}
