package models

import (
	"database/sql"
	"time"
)

// Message is a timestamped note attached to a ticket. DocumentID is a weak
// reference: the document outlives or predates the message independently.
type Message struct {
	ID         string         `db:"id" json:"id"`
	TicketID   string         `db:"ticket_id" json:"ticket_id"`
	AuthorID   string         `db:"author_id" json:"author_id"`
	Content    string         `db:"content" json:"content"`
	DocumentID sql.NullString `db:"document_id" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// MessageView is a message with its author projection and optional document
// reference.
type MessageView struct {
	ID         string            `json:"id"`
	TicketID   string            `json:"ticket_id"`
	AuthorID   string            `json:"author_id"`
	Content    string            `json:"content"`
	DocumentID string            `json:"document_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Author     UserView          `json:"author"`
	Document   *DocumentMetadata `json:"document,omitempty"`
}
