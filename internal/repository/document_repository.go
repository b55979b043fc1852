package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-desk/helpdesk-api/internal/models"
)

const documentColumns = `id, ticket_id, user_id, document_type, file_name, file_path, content_type, file_size, created_at`

// DocumentRepository provides database access for generated documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO documents (id, ticket_id, user_id, document_type, file_name, file_path, content_type, file_size, created_at)
		VALUES (:id, :ticket_id, :user_id, :document_type, :file_name, :file_path, :content_type, :file_size, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns a document by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 LIMIT 1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// FindByTicket returns the document generated for the ticket.
func (r *DocumentRepository) FindByTicket(ctx context.Context, ticketID string) (*models.Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE ticket_id = $1 LIMIT 1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, ticketID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by ticket: %w", err)
	}
	return &doc, nil
}

// FindByIDs returns documents matching the provided identifiers.
func (r *DocumentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+documentColumns+` FROM documents WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build document ids query: %w", err)
	}
	query = r.db.Rebind(query)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("find documents by ids: %w", err)
	}
	return docs, nil
}

// ListByUser returns document metadata for a user's tickets, newest first.
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]models.DocumentMetadata, error) {
	const query = `SELECT d.id, d.document_type, d.file_name, d.file_size, d.created_at, t.id AS ticket_id, t.title AS ticket_title
		FROM documents d
		JOIN tickets t ON t.id = d.ticket_id
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC`
	var docs []models.DocumentMetadata
	if err := r.db.SelectContext(ctx, &docs, query, userID); err != nil {
		return nil, fmt.Errorf("list documents by user: %w", err)
	}
	return docs, nil
}
