package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/middleware"
	"github.com/campus-desk/helpdesk-api/internal/models"
	"github.com/campus-desk/helpdesk-api/internal/service"
)

type fakeTicketStore struct {
	tickets map[string]*models.Ticket
}

func (f *fakeTicketStore) List(ctx context.Context, filter models.TicketFilter) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, tk := range f.tickets {
		if filter.AuthorID != "" && tk.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *tk)
	}
	return out, nil
}

func (f *fakeTicketStore) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	if tk, ok := f.tickets[id]; ok {
		copy := *tk
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	if f.tickets == nil {
		f.tickets = make(map[string]*models.Ticket)
	}
	copy := *ticket
	f.tickets[ticket.ID] = &copy
	return nil
}

func (f *fakeTicketStore) UpdateStatus(ctx context.Context, id string, status models.TicketStatus, updatedAt time.Time) error {
	if tk, ok := f.tickets[id]; ok {
		tk.Status = status
		tk.UpdatedAt = updatedAt
		return nil
	}
	return sql.ErrNoRows
}

type fakeMessageStore struct {
	messages []models.Message
}

func (f *fakeMessageStore) ListByTicket(ctx context.Context, ticketID string) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeMessageStore) Create(ctx context.Context, message *models.Message) error {
	f.messages = append(f.messages, *message)
	return nil
}

type fakeUserDirectory struct {
	users map[string]*models.User
}

func (f *fakeUserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeDocumentDirectory struct{}

func (f *fakeDocumentDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	return nil, nil
}

type fakeGenerator struct{}

func (f *fakeGenerator) GenerateForTicket(ctx context.Context, ticket *models.Ticket, author *models.User, documentType string) (*models.Document, error) {
	return &models.Document{ID: "d1", TicketID: ticket.ID, UserID: author.ID, DocumentType: documentType, FileName: "d.docx", FileSize: 100}, nil
}

func newTicketHandler() (*TicketHandler, *fakeTicketStore) {
	tickets := &fakeTicketStore{tickets: map[string]*models.Ticket{
		"t1": {ID: "t1", AuthorID: "s1", Title: "Пропуск", Status: models.StatusNew},
	}}
	users := &fakeUserDirectory{users: map[string]*models.User{
		"s1": {ID: "s1", Email: "s1@example.com", FirstName: "Иван", LastName: "Петров", Role: models.RoleStudent},
	}}
	svc := service.NewTicketService(tickets, &fakeMessageStore{}, users, &fakeDocumentDirectory{}, &fakeGenerator{}, validator.New(), zap.NewNop())
	return NewTicketHandler(svc, nil), tickets
}

func TestTicketHandlerListRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTicketHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tickets", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTicketHandlerCreateInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTicketHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewReader([]byte("{broken")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketHandlerCreateReturnsDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTicketHandler()

	body, err := json.Marshal(map[string]string{
		"title":       "Потерял пропуск",
		"description": "Прошу выдать дубликат пропуска.",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data service.CreateTicketResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusNew, envelope.Data.Ticket.Status)
	require.NotNil(t, envelope.Data.Document)
	assert.Equal(t, "d.docx", envelope.Data.Document.FileName)
}

func TestTicketHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTicketHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tickets/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketHandlerUpdateStatusRejectsUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, tickets := newTicketHandler()

	body, err := json.Marshal(map[string]string{"status": "archived"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/tickets/t1/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.StatusNew, tickets.tickets["t1"].Status)
}
