package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/models"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
)

func newExportFixture() *ExportService {
	tickets := &mockTicketRepo{tickets: map[string]*models.Ticket{
		"t1": {ID: "t1", AuthorID: "s1", Title: "Пропуск", Status: models.StatusNew},
	}}
	users := &mockUserDirectory{users: map[string]*models.User{
		"s1": {ID: "s1", FirstName: "Иван", LastName: "Петров"},
	}}
	return NewExportService(tickets, users, zap.NewNop())
}

func TestExportTicketsCSV(t *testing.T) {
	svc := newExportFixture()

	file, err := svc.Tickets(context.Background(), "csv", "")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.FileName, ".csv"))
	content := string(file.Data)
	assert.Contains(t, content, "ID,Title,Author,Status,Created,Updated")
	assert.Contains(t, content, "Петров Иван")
	assert.Contains(t, content, "t1")
}

func TestExportTicketsPDF(t *testing.T) {
	svc := newExportFixture()

	file, err := svc.Tickets(context.Background(), "pdf", "")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.FileName, ".pdf"))
	assert.NotEmpty(t, file.Data)
}

func TestExportTicketsUnsupportedFormat(t *testing.T) {
	svc := newExportFixture()

	_, err := svc.Tickets(context.Background(), "xlsx", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
