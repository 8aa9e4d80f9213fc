package repository

import (
	"context"
	"sync"

	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// memoryRepository keeps everything in process memory. It backs one-shot CLI
// commands run with --ephemeral and the tests of packages above this one.
type memoryRepository struct {
	mu            sync.RWMutex
	items         map[string]string
	conversations map[string][]model.Message
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		items:         make(map[string]string),
		conversations: make(map[string][]model.Message),
	}
}

func (r *memoryRepository) GetItem(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (r *memoryRepository) SetItem(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = value
	return nil
}

func (r *memoryRepository) SetItems(_ context.Context, items map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range items {
		r.items[k] = v
	}
	return nil
}

func (r *memoryRepository) RemoveItems(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.items, k)
	}
	return nil
}

func (r *memoryRepository) SaveMessages(_ context.Context, conversationID string, messages []model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conversationID] = model.CloneMessages(messages)
	return nil
}

func (r *memoryRepository) LoadMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	messages, ok := r.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return model.CloneMessages(messages), nil
}

func (r *memoryRepository) DeleteConversation(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}
