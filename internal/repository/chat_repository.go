package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

// ChatRepository persists companion conversations.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs a ChatRepository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create stores one chat message.
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chat_history (id, user_id, message, sender, created_at) VALUES (:id, :user_id, :message, :sender, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListByUser returns the conversation of a user in chronological order.
func (r *ChatRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	const query = `SELECT id, user_id, message, sender, created_at FROM (
SELECT id, user_id, message, sender, created_at FROM chat_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
) recent ORDER BY created_at ASC`
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	return messages, nil
}
