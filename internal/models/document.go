package models

import "time"

// Document is a generated file attached to a ticket at creation time.
type Document struct {
	ID           string    `db:"id" json:"id"`
	TicketID     string    `db:"ticket_id" json:"ticket_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	DocumentType string    `db:"document_type" json:"document_type"`
	FileName     string    `db:"file_name" json:"file_name"`
	FilePath     string    `db:"file_path" json:"-"`
	ContentType  string    `db:"content_type" json:"content_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DocumentMetadata is the list projection of a document including its
// ticket context.
type DocumentMetadata struct {
	ID           string    `db:"id" json:"id"`
	DocumentType string    `db:"document_type" json:"document_type"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	TicketID     string    `db:"ticket_id" json:"ticket_id"`
	TicketTitle  string    `db:"ticket_title" json:"ticket_title"`
}
