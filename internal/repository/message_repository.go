package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-desk/helpdesk-api/internal/models"
)

const messageColumns = `id, ticket_id, author_id, content, document_id, created_at`

// MessageRepository provides database access for ticket messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListByTicket returns the ticket's messages in chronological order.
func (r *MessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]models.Message, error) {
	const query = `SELECT ` + messageColumns + ` FROM messages WHERE ticket_id = $1 ORDER BY created_at ASC`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, ticketID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Create inserts a new message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO messages (id, ticket_id, author_id, content, document_id, created_at)
		VALUES (:id, :ticket_id, :author_id, :content, :document_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}
