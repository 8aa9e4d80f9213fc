package repository

import (
	"context"

	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

// Keys of the persisted client state read and written by the chat client.
const (
	KeyToken     = "token"
	KeyAuthToken = "auth_token"
	KeyUserID    = "user_id"
	KeyUsername  = "username"
)

// Storage is the persisted key/value client state, the equivalent of a
// browser's local storage. GetItem returns ErrNotFound for a missing key.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	// SetItems writes all pairs atomically.
	SetItems(ctx context.Context, items map[string]string) error
	// RemoveItems deletes the given keys; missing keys are not an error.
	RemoveItems(ctx context.Context, keys ...string) error
}

// ConversationStore keeps the saved message list of each conversation.
type ConversationStore interface {
	SaveMessages(ctx context.Context, conversationID string, messages []model.Message) error
	LoadMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Repository defines the interface for all persisted client state.
// This interface makes it easy to switch storage implementations.
type Repository interface {
	Storage
	ConversationStore
}
