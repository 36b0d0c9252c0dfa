package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImmediateQueue_DeliversJob(t *testing.T) {
	var (
		mu    sync.Mutex
		names []string
		ids   []any
	)
	q := NewImmediateQueue(func(_ context.Context, name string, payload map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, name)
		ids = append(ids, payload["id"])
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Enqueue(ctx, "notify_contact", map[string]any{"id": "abc"}))
	cancel()
	q.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"notify_contact"}, names)
	require.Equal(t, []any{"abc"}, ids)
}

func TestImmediateQueue_NonMapPayload(t *testing.T) {
	got := make(chan map[string]any, 1)
	q := NewImmediateQueue(nil)
	q.SetHandler(func(_ context.Context, _ string, payload map[string]any) { got <- payload })

	require.NoError(t, q.Enqueue(context.Background(), "job", "not-a-map"))
	q.Close()
	require.Empty(t, <-got)
}

func TestImmediateQueue_NoHandler(t *testing.T) {
	q := NewImmediateQueue(nil)
	require.NoError(t, q.Enqueue(context.Background(), "job", nil))
	q.Close()
}
