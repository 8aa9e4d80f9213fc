package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ConcealedGem/versa-chat-view/internal/model"
)

const upsertItemQuery = "INSERT INTO client_storage (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db, now: time.Now}
}

func (r *sqliteRepository) GetItem(ctx context.Context, key string) (string, error) {
	query := "SELECT value FROM client_storage WHERE key = ?"
	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("could not read %q: %w", key, err)
	}
	return value, nil
}

func (r *sqliteRepository) SetItem(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertItemQuery, key, value); err != nil {
		return fmt.Errorf("could not write %q: %w", key, err)
	}
	return nil
}

// SetItems writes every pair in one transaction, keys in sorted order.
func (r *sqliteRepository) SetItems(ctx context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// Ensure transaction is rolled back on error
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertItemQuery)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, items[k]); err != nil {
			return fmt.Errorf("could not write %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (r *sqliteRepository) RemoveItems(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	query := "DELETE FROM client_storage WHERE key IN (" + placeholders + ")"
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("could not remove keys: %w", err)
	}
	return nil
}

// SaveMessages replaces the stored message list of a conversation.
func (r *sqliteRepository) SaveMessages(ctx context.Context, conversationID string, messages []model.Message) error {
	if messages == nil {
		messages = []model.Message{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("could not encode messages: %w", err)
	}

	query := `
		INSERT INTO conversations (id, messages, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, conversationID, string(payload), r.now().UTC()); err != nil {
		return fmt.Errorf("could not save conversation: %w", err)
	}
	return nil
}

func (r *sqliteRepository) LoadMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	query := "SELECT messages FROM conversations WHERE id = ?"
	var payload string
	if err := r.db.QueryRowContext(ctx, query, conversationID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not load conversation: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		return nil, fmt.Errorf("could not decode saved messages: %w", err)
	}
	return messages, nil
}

func (r *sqliteRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	query := "DELETE FROM conversations WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, conversationID)
	return err
}
