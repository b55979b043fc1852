package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/models"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
)

type mockTicketRepo struct {
	tickets    map[string]*models.Ticket
	lastFilter models.TicketFilter
	statusSet  models.TicketStatus
}

func (m *mockTicketRepo) List(ctx context.Context, filter models.TicketFilter) ([]models.Ticket, error) {
	m.lastFilter = filter
	tickets := make([]models.Ticket, 0, len(m.tickets))
	for _, tk := range m.tickets {
		if filter.AuthorID != "" && tk.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Status != "" && tk.Status != filter.Status {
			continue
		}
		if filter.ExcludeFinished && (tk.Status == models.StatusResolved || tk.Status == models.StatusClosed) {
			continue
		}
		tickets = append(tickets, *tk)
	}
	return tickets, nil
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	if tk, ok := m.tickets[id]; ok {
		copy := *tk
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	if m.tickets == nil {
		m.tickets = make(map[string]*models.Ticket)
	}
	copy := *ticket
	m.tickets[ticket.ID] = &copy
	return nil
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, id string, status models.TicketStatus, updatedAt time.Time) error {
	if tk, ok := m.tickets[id]; ok {
		tk.Status = status
		tk.UpdatedAt = updatedAt
		m.statusSet = status
		return nil
	}
	return sql.ErrNoRows
}

type mockMessageRepo struct {
	messages []models.Message
}

func (m *mockMessageRepo) ListByTicket(ctx context.Context, ticketID string) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) Create(ctx context.Context, message *models.Message) error {
	m.messages = append(m.messages, *message)
	return nil
}

type mockUserDirectory struct {
	users map[string]*models.User
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type mockDocumentDirectory struct {
	docs map[string]models.Document
}

func (m *mockDocumentDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	var out []models.Document
	for _, id := range ids {
		if d, ok := m.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockGenerator struct {
	doc  *models.Document
	err  error
	last string
}

func (m *mockGenerator) GenerateForTicket(ctx context.Context, ticket *models.Ticket, author *models.User, documentType string) (*models.Document, error) {
	m.last = documentType
	if m.err != nil {
		return nil, m.err
	}
	doc := *m.doc
	doc.TicketID = ticket.ID
	doc.UserID = author.ID
	return &doc, nil
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func newTicketFixture() (*TicketService, *mockTicketRepo, *mockMessageRepo, *mockGenerator) {
	tickets := &mockTicketRepo{tickets: map[string]*models.Ticket{
		"t1": {ID: "t1", AuthorID: "s1", Title: "Пропуск", Status: models.StatusNew},
		"t2": {ID: "t2", AuthorID: "s2", Title: "Справка", Status: models.StatusResolved},
		"t3": {ID: "t3", AuthorID: "s1", Title: "Общежитие", Status: models.StatusClosed},
	}}
	messages := &mockMessageRepo{}
	users := &mockUserDirectory{users: map[string]*models.User{
		"s1":      {ID: "s1", Email: "s1@example.com", FirstName: "Иван", LastName: "Петров", Role: models.RoleStudent},
		"s2":      {ID: "s2", Email: "s2@example.com", FirstName: "Анна", LastName: "Иванова", Role: models.RoleStudent},
		"admin-1": {ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin},
	}}
	gen := &mockGenerator{doc: &models.Document{ID: "d1", DocumentType: "application", FileName: "application_x.docx", FileSize: 321}}
	svc := NewTicketService(tickets, messages, users, &mockDocumentDirectory{}, gen, validator.New(), zap.NewNop())
	return svc, tickets, messages, gen
}

func TestTicketListStudentSeesOnlyOwn(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	views, err := svc.List(context.Background(), studentClaims("s1"), "")
	require.NoError(t, err)

	assert.Len(t, views, 2)
	assert.Equal(t, "s1", repo.lastFilter.AuthorID)
	assert.False(t, repo.lastFilter.ExcludeFinished)
	for _, v := range views {
		assert.Equal(t, "s1", v.AuthorID)
	}
}

func TestTicketListAdminDefaultHidesFinished(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	views, err := svc.List(context.Background(), adminClaims(), "")
	require.NoError(t, err)

	assert.True(t, repo.lastFilter.ExcludeFinished)
	assert.Len(t, views, 1)
	assert.Equal(t, "t1", views[0].ID)
}

func TestTicketListAdminAllLiftsFilter(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	views, err := svc.List(context.Background(), adminClaims(), "all")
	require.NoError(t, err)

	assert.False(t, repo.lastFilter.ExcludeFinished)
	assert.Empty(t, repo.lastFilter.Status)
	assert.Len(t, views, 3)
}

func TestTicketListAdminExplicitStatus(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	views, err := svc.List(context.Background(), adminClaims(), "resolved")
	require.NoError(t, err)

	assert.Equal(t, models.StatusResolved, repo.lastFilter.Status)
	assert.Len(t, views, 1)
	assert.Equal(t, "t2", views[0].ID)
}

func TestTicketListInvalidStatusIgnored(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	_, err := svc.List(context.Background(), adminClaims(), "bogus")
	require.NoError(t, err)

	assert.Empty(t, repo.lastFilter.Status)
	assert.True(t, repo.lastFilter.ExcludeFinished)
}

func TestTicketGetForbiddenForOtherStudent(t *testing.T) {
	svc, _, _, _ := newTicketFixture()

	_, err := svc.Get(context.Background(), studentClaims("s2"), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), adminClaims(), "t1")
	assert.NoError(t, err)
}

func TestTicketGetNotFound(t *testing.T) {
	svc, _, _, _ := newTicketFixture()

	_, err := svc.Get(context.Background(), adminClaims(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTicketCreateGeneratesDocumentAndSystemMessage(t *testing.T) {
	svc, repo, messages, gen := newTicketFixture()

	result, err := svc.Create(context.Background(), studentClaims("s1"), CreateTicketRequest{
		Title:        "Потерял пропуск",
		Description:  "Прошу выдать дубликат пропуска.",
		DocumentType: "complaint",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, result.Ticket.Status)
	assert.NotEmpty(t, result.Ticket.ID)
	assert.Empty(t, result.DocumentError)
	require.NotNil(t, result.Document)
	assert.Equal(t, result.Ticket.ID, result.Document.TicketID)
	assert.Equal(t, "complaint", gen.last)

	_, stored := repo.tickets[result.Ticket.ID]
	assert.True(t, stored)

	require.Len(t, messages.messages, 1)
	msg := messages.messages[0]
	assert.Equal(t, result.Ticket.ID, msg.TicketID)
	assert.Equal(t, "s1", msg.AuthorID)
	assert.Equal(t, result.Document.ID, msg.DocumentID.String)
	assert.True(t, strings.Contains(msg.Content, result.Document.FileName))
}

func TestTicketCreateSurvivesGeneratorFailure(t *testing.T) {
	svc, repo, messages, gen := newTicketFixture()
	gen.err = errors.New("renderer exploded")

	result, err := svc.Create(context.Background(), studentClaims("s1"), CreateTicketRequest{
		Title:       "Потерял пропуск",
		Description: "Прошу выдать дубликат пропуска.",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, result.Ticket.Status)
	assert.Nil(t, result.Document)
	assert.NotEmpty(t, result.DocumentError)
	assert.Empty(t, messages.messages)

	_, stored := repo.tickets[result.Ticket.ID]
	assert.True(t, stored)
}

func TestTicketCreateDefaultsToApplication(t *testing.T) {
	svc, _, _, gen := newTicketFixture()

	_, err := svc.Create(context.Background(), studentClaims("s1"), CreateTicketRequest{
		Title:       "Заявление на общежитие",
		Description: "Прошу предоставить место в общежитии.",
	})
	require.NoError(t, err)
	assert.Equal(t, "application", gen.last)
}

func TestTicketUpdateStatusRejectsUnknown(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	_, err := svc.UpdateStatus(context.Background(), "t1", UpdateTicketStatusRequest{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StatusNew, repo.tickets["t1"].Status)
}

func TestTicketUpdateStatusAnyTransitionAllowed(t *testing.T) {
	svc, repo, _, _ := newTicketFixture()

	view, err := svc.UpdateStatus(context.Background(), "t3", UpdateTicketStatusRequest{Status: models.StatusNew})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, view.Status)
	assert.Equal(t, models.StatusNew, repo.tickets["t3"].Status)
}

func TestTicketAddMessageForbiddenForOtherStudent(t *testing.T) {
	svc, _, messages, _ := newTicketFixture()

	_, err := svc.AddMessage(context.Background(), studentClaims("s2"), "t1", AddMessageRequest{Content: "привет"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, messages.messages)
}

func TestTicketAddMessageAdminOnAnyTicket(t *testing.T) {
	svc, _, messages, _ := newTicketFixture()

	view, err := svc.AddMessage(context.Background(), adminClaims(), "t1", AddMessageRequest{Content: "Взяли в работу"})
	require.NoError(t, err)
	assert.Equal(t, "Взяли в работу", view.Content)
	assert.Equal(t, "admin-1", view.AuthorID)
	require.Len(t, messages.messages, 1)
}
