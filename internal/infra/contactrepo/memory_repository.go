package contactrepo

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/contact"
)

// MemoryRepository keeps contact messages in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages map[string]contact.Message
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{messages: make(map[string]contact.Message)}
}

// Create stores a message.
func (r *MemoryRepository) Create(_ context.Context, msg contact.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ID] = msg
	return nil
}

// MarkNotified flags a message as delivered to staff.
func (r *MemoryRepository) MarkNotified(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return false, nil
	}
	msg.Status = contact.StatusNotified
	msg.NotifiedAt = &at
	r.messages[id] = msg
	return true, nil
}

// Get returns a message by id.
func (r *MemoryRepository) Get(id string) (contact.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.messages[id]
	return msg, ok
}

var _ contact.Repository = (*MemoryRepository)(nil)
