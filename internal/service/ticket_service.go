package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/models"
	"github.com/campus-desk/helpdesk-api/pkg/docgen"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
)

type ticketRepository interface {
	List(ctx context.Context, filter models.TicketFilter) ([]models.Ticket, error)
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	UpdateStatus(ctx context.Context, id string, status models.TicketStatus, updatedAt time.Time) error
}

type messageRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]models.Message, error)
	Create(ctx context.Context, message *models.Message) error
}

type ticketUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type documentDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Document, error)
}

// documentGenerator renders and persists the document attached to a new
// ticket.
type documentGenerator interface {
	GenerateForTicket(ctx context.Context, ticket *models.Ticket, author *models.User, documentType string) (*models.Document, error)
}

// CreateTicketRequest is the payload for submitting a new ticket.
type CreateTicketRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"required,min=10,max=5000"`
	DocumentType string `json:"document_type" validate:"omitempty,oneof=application request complaint petition"`
}

// UpdateTicketStatusRequest moves a ticket to another lifecycle state.
type UpdateTicketStatusRequest struct {
	Status models.TicketStatus `json:"status" validate:"required"`
}

// AddMessageRequest appends a note to a ticket's thread.
type AddMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CreateTicketResult carries the created ticket together with the generated
// document. DocumentError is set when generation failed; the ticket itself is
// still persisted in that case.
type CreateTicketResult struct {
	Ticket        models.TicketView `json:"ticket"`
	Document      *models.Document  `json:"document,omitempty"`
	DocumentError string            `json:"document_error,omitempty"`
}

// TicketService implements the ticket workflow: listing, detail views,
// creation with document generation, status updates and the message thread.
type TicketService struct {
	tickets   ticketRepository
	messages  messageRepository
	users     ticketUserDirectory
	documents documentDirectory
	generator documentGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTicketService creates an instance of TicketService.
func NewTicketService(
	tickets ticketRepository,
	messages messageRepository,
	users ticketUserDirectory,
	documents documentDirectory,
	generator documentGenerator,
	validate *validator.Validate,
	logger *zap.Logger,
) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TicketService{
		tickets:   tickets,
		messages:  messages,
		users:     users,
		documents: documents,
		generator: generator,
		validator: validate,
		logger:    logger,
	}
}

// List returns tickets visible to the caller. Students only ever see their
// own tickets. Admins see everything, except that without an explicit status
// filter the resolved and closed tickets are hidden; "all" lifts both the
// status filter and that exclusion. Unknown status values are ignored.
func (s *TicketService) List(ctx context.Context, claims *models.JWTClaims, status string) ([]models.TicketView, error) {
	filter := models.TicketFilter{}
	if claims.Role != models.RoleAdmin {
		filter.AuthorID = claims.UserID
	}

	switch requested := models.TicketStatus(strings.ToLower(strings.TrimSpace(status))); {
	case requested == "all":
	case models.ValidTicketStatus(requested):
		filter.Status = requested
	default:
		if claims.Role == models.RoleAdmin {
			filter.ExcludeFinished = true
		}
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tickets")
	}

	authorIDs := make([]string, 0, len(tickets))
	seen := make(map[string]bool, len(tickets))
	for i := range tickets {
		if !seen[tickets[i].AuthorID] {
			seen[tickets[i].AuthorID] = true
			authorIDs = append(authorIDs, tickets[i].AuthorID)
		}
	}

	authors, err := s.loadAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, models.TicketView{Ticket: tickets[i], Author: authors[tickets[i].AuthorID]})
	}
	return views, nil
}

// Get returns a single ticket with its author and ordered message thread.
// Students may only access their own tickets.
func (s *TicketService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.TicketView, error) {
	ticket, err := s.findAccessible(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	authors, err := s.loadAuthors(ctx, []string{ticket.AuthorID})
	if err != nil {
		return nil, err
	}

	messages, err := s.composeMessages(ctx, ticket)
	if err != nil {
		return nil, err
	}

	return &models.TicketView{Ticket: *ticket, Author: authors[ticket.AuthorID], Messages: messages}, nil
}

// Create persists a new ticket and generates its accompanying document. The
// document step is best effort: on failure the ticket survives and the result
// carries a DocumentError instead.
func (s *TicketService) Create(ctx context.Context, claims *models.JWTClaims, req CreateTicketRequest) (*CreateTicketResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ticket payload")
	}

	author, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author")
	}

	now := time.Now().UTC()
	ticket := &models.Ticket{
		ID:          uuid.NewString(),
		AuthorID:    author.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      models.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ticket")
	}

	result := &CreateTicketResult{Ticket: models.TicketView{Ticket: *ticket, Author: author.View()}}

	doc, err := s.generator.GenerateForTicket(ctx, ticket, author, docgen.Normalize(req.DocumentType))
	if err != nil {
		s.logger.Warn("document generation failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		result.DocumentError = "document generation failed"
		return result, nil
	}
	result.Document = doc

	message := &models.Message{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		AuthorID:   author.ID,
		Content:    fmt.Sprintf("Автоматически сформирован документ «%s»: %s (%d байт)", docgen.TypeLabel(doc.DocumentType), doc.FileName, doc.FileSize),
		DocumentID: nullString(doc.ID),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		s.logger.Warn("failed to record document message",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}

	return result, nil
}

// UpdateStatus moves a ticket to the requested state. Any transition between
// known states is allowed.
func (s *TicketService) UpdateStatus(ctx context.Context, id string, req UpdateTicketStatusRequest) (*models.TicketView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !models.ValidTicketStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown ticket status %q", req.Status))
	}

	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}

	now := time.Now().UTC()
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, req.Status, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ticket status")
	}
	ticket.Status = req.Status
	ticket.UpdatedAt = now

	authors, err := s.loadAuthors(ctx, []string{ticket.AuthorID})
	if err != nil {
		return nil, err
	}

	return &models.TicketView{Ticket: *ticket, Author: authors[ticket.AuthorID]}, nil
}

// AddMessage appends a message to the ticket thread. Students may only post
// to their own tickets.
func (s *TicketService) AddMessage(ctx context.Context, claims *models.JWTClaims, ticketID string, req AddMessageRequest) (*models.MessageView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	ticket, err := s.findAccessible(ctx, claims, ticketID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		AuthorID:  claims.UserID,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create message")
	}

	authors, err := s.loadAuthors(ctx, []string{claims.UserID})
	if err != nil {
		return nil, err
	}

	return &models.MessageView{
		ID:        message.ID,
		TicketID:  message.TicketID,
		AuthorID:  message.AuthorID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
		Author:    authors[claims.UserID],
	}, nil
}

// Messages returns the ticket's thread in chronological order.
func (s *TicketService) Messages(ctx context.Context, claims *models.JWTClaims, ticketID string) ([]models.MessageView, error) {
	ticket, err := s.findAccessible(ctx, claims, ticketID)
	if err != nil {
		return nil, err
	}
	return s.composeMessages(ctx, ticket)
}

func (s *TicketService) findAccessible(ctx context.Context, claims *models.JWTClaims, id string) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}
	if claims.Role != models.RoleAdmin && ticket.AuthorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "access to this ticket is denied")
	}
	return ticket, nil
}

func (s *TicketService) composeMessages(ctx context.Context, ticket *models.Ticket) ([]models.MessageView, error) {
	messages, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}

	authorIDs := make([]string, 0, len(messages))
	documentIDs := make([]string, 0, 1)
	seenAuthors := make(map[string]bool, len(messages))
	seenDocs := make(map[string]bool, 1)
	for i := range messages {
		if !seenAuthors[messages[i].AuthorID] {
			seenAuthors[messages[i].AuthorID] = true
			authorIDs = append(authorIDs, messages[i].AuthorID)
		}
		if messages[i].DocumentID.Valid && !seenDocs[messages[i].DocumentID.String] {
			seenDocs[messages[i].DocumentID.String] = true
			documentIDs = append(documentIDs, messages[i].DocumentID.String)
		}
	}

	authors, err := s.loadAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	docsByID := make(map[string]models.Document, len(documentIDs))
	if len(documentIDs) > 0 {
		docs, err := s.documents.FindByIDs(ctx, documentIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
		}
		for i := range docs {
			docsByID[docs[i].ID] = docs[i]
		}
	}

	views := make([]models.MessageView, 0, len(messages))
	for i := range messages {
		view := models.MessageView{
			ID:        messages[i].ID,
			TicketID:  messages[i].TicketID,
			AuthorID:  messages[i].AuthorID,
			Content:   messages[i].Content,
			CreatedAt: messages[i].CreatedAt,
			Author:    authors[messages[i].AuthorID],
		}
		if messages[i].DocumentID.Valid {
			view.DocumentID = messages[i].DocumentID.String
			if doc, ok := docsByID[messages[i].DocumentID.String]; ok {
				view.Document = &models.DocumentMetadata{
					ID:           doc.ID,
					DocumentType: doc.DocumentType,
					FileName:     doc.FileName,
					FileSize:     doc.FileSize,
					CreatedAt:    doc.CreatedAt,
					TicketID:     ticket.ID,
					TicketTitle:  ticket.Title,
				}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *TicketService) loadAuthors(ctx context.Context, ids []string) (map[string]models.UserView, error) {
	if len(ids) == 0 {
		return map[string]models.UserView{}, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket authors")
	}
	views := make(map[string]models.UserView, len(users))
	for i := range users {
		views[users[i].ID] = users[i].View()
	}
	return views, nil
}
