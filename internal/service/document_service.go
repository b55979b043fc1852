package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/models"
	"github.com/campus-desk/helpdesk-api/pkg/docgen"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	FindByTicket(ctx context.Context, ticketID string) (*models.Document, error)
	ListByUser(ctx context.Context, userID string) ([]models.DocumentMetadata, error)
}

type documentTicketFinder interface {
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Exists(filename string) bool
}

type documentRenderer interface {
	Render(in docgen.Input, documentType string) ([]byte, error)
	FileName(in docgen.Input, documentType string) string
}

type documentListCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DocumentFile is a stored document together with its raw contents, ready to
// be sent as a download.
type DocumentFile struct {
	Document *models.Document
	Data     []byte
}

// DocumentService generates ticket documents, serves their files and lists
// per-user metadata with a short-lived cache in front of the database.
type DocumentService struct {
	repo     documentRepository
	tickets  documentTicketFinder
	storage  documentStorage
	renderer documentRenderer
	cache    documentListCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewDocumentService creates an instance of DocumentService. A nil metrics
// service disables instrumentation.
func NewDocumentService(
	repo documentRepository,
	tickets documentTicketFinder,
	storage documentStorage,
	renderer documentRenderer,
	cache documentListCache,
	cacheTTL time.Duration,
	metrics *MetricsService,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DocumentService{
		repo:     repo,
		tickets:  tickets,
		storage:  storage,
		renderer: renderer,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// GenerateForTicket renders the typed document for a freshly created ticket,
// stores the file and records its metadata.
func (s *DocumentService) GenerateForTicket(ctx context.Context, ticket *models.Ticket, author *models.User, documentType string) (*models.Document, error) {
	documentType = docgen.Normalize(documentType)

	in := docgen.Input{
		TicketID:          ticket.ID,
		TicketTitle:       ticket.Title,
		TicketDescription: ticket.Description,
		TicketCreatedAt:   ticket.CreatedAt,
		FirstName:         author.FirstName,
		LastName:          author.LastName,
		Patronymic:        author.Patronymic.String,
		GroupName:         author.GroupName.String,
		Email:             author.Email,
	}

	data, err := s.renderer.Render(in, documentType)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	fileName := s.renderer.FileName(in, documentType)
	filePath, err := s.storage.Save(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &models.Document{
		TicketID:     ticket.ID,
		UserID:       author.ID,
		DocumentType: documentType,
		FileName:     fileName,
		FilePath:     filePath,
		ContentType:  docgen.ContentTypeDocx,
		FileSize:     int64(len(data)),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	s.metrics.RecordDocumentGenerated(documentType)

	if err := s.cache.Delete(ctx, userDocumentsKey(author.ID)); err != nil {
		s.logger.Warn("failed to invalidate document cache",
			zap.String("user_id", author.ID),
			zap.Error(err))
	}

	return doc, nil
}

// GetFile returns a document with its contents by document id. Students may
// only download their own documents.
func (s *DocumentService) GetFile(ctx context.Context, claims *models.JWTClaims, id string) (*DocumentFile, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return s.readFile(claims, doc)
}

// GetTicketFile returns the document generated for the given ticket.
func (s *DocumentService) GetTicketFile(ctx context.Context, claims *models.JWTClaims, ticketID string) (*DocumentFile, error) {
	if _, err := s.tickets.FindByID(ctx, ticketID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}

	doc, err := s.repo.FindByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return s.readFile(claims, doc)
}

// ListForUser returns document metadata for the user's tickets, newest first.
// Results are cached briefly; cache failures fall through to the database.
func (s *DocumentService) ListForUser(ctx context.Context, userID string) ([]models.DocumentMetadata, error) {
	key := userDocumentsKey(userID)

	var cached []models.DocumentMetadata
	lookupStart := time.Now()
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheOperation(true, time.Since(lookupStart))
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("document cache read failed", zap.String("user_id", userID), zap.Error(err))
	}
	s.metrics.RecordCacheOperation(false, time.Since(lookupStart))

	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	if docs == nil {
		docs = []models.DocumentMetadata{}
	}

	if err := s.cache.Set(ctx, key, docs, s.cacheTTL); err != nil {
		s.logger.Warn("document cache write failed", zap.String("user_id", userID), zap.Error(err))
	}

	return docs, nil
}

func (s *DocumentService) readFile(claims *models.JWTClaims, doc *models.Document) (*DocumentFile, error) {
	if claims.Role != models.RoleAdmin && doc.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "access to this document is denied")
	}
	if !s.storage.Exists(doc.FilePath) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document file is missing")
	}
	data, err := s.storage.Read(doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document file")
	}
	return &DocumentFile{Document: doc, Data: data}, nil
}

func userDocumentsKey(userID string) string {
	return "documents:user:" + userID
}
