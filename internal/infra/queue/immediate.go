package queue

import (
	"context"
	"sync"

	"github.com/yanqian/smart-irrigation/internal/domain/contact"
)

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	contact.JobQueue
	SetHandler(handler Handler)
	Close()
}

// Handler executes a named job.
type Handler func(ctx context.Context, name string, payload map[string]any)

// ImmediateQueue hands jobs to the handler in a goroutine as soon as they are enqueued.
type ImmediateQueue struct {
	mu      sync.RWMutex
	handler Handler
	wg      sync.WaitGroup
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	return &ImmediateQueue{handler: handler}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	q.handler = handler
	q.mu.Unlock()
}

// Enqueue invokes the handler asynchronously. The job outlives the caller's request.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload any) error {
	q.mu.RLock()
	handler := q.handler
	q.mu.RUnlock()
	if handler == nil {
		return nil
	}
	typed := toPayload(payload)
	jobCtx := context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		handler(jobCtx, name, typed)
	}()
	return nil
}

// Close waits for in-flight jobs.
func (q *ImmediateQueue) Close() {
	q.wg.Wait()
}

func toPayload(payload any) map[string]any {
	if typed, ok := payload.(map[string]any); ok {
		return typed
	}
	return map[string]any{}
}

var _ HandlerQueue = (*ImmediateQueue)(nil)
