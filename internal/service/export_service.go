package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-desk/helpdesk-api/internal/models"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
	"github.com/campus-desk/helpdesk-api/pkg/export"
)

// Export formats accepted by the ticket export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type exportTicketLister interface {
	List(ctx context.Context, filter models.TicketFilter) ([]models.Ticket, error)
}

type exportUserDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// ExportFile is a rendered export ready to be sent as a download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders the admin ticket overview as CSV or PDF.
type ExportService struct {
	tickets exportTicketLister
	users   exportUserDirectory
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService creates an instance of ExportService.
func NewExportService(tickets exportTicketLister, users exportUserDirectory, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		tickets: tickets,
		users:   users,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Tickets exports the full ticket list in the requested format. The optional
// status narrows the export; "all" and empty both mean every ticket.
func (s *ExportService) Tickets(ctx context.Context, format, status string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	filter := models.TicketFilter{}
	if requested := models.TicketStatus(strings.ToLower(strings.TrimSpace(status))); models.ValidTicketStatus(requested) {
		filter.Status = requested
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tickets for export")
	}

	dataset, err := s.buildDataset(ctx, tickets)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(*dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("tickets_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		data, err := s.pdf.Render(*dataset, "Tickets")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("tickets_%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	}
}

func (s *ExportService) buildDataset(ctx context.Context, tickets []models.Ticket) (*export.Dataset, error) {
	authorIDs := make([]string, 0, len(tickets))
	seen := make(map[string]bool, len(tickets))
	for i := range tickets {
		if !seen[tickets[i].AuthorID] {
			seen[tickets[i].AuthorID] = true
			authorIDs = append(authorIDs, tickets[i].AuthorID)
		}
	}

	names := make(map[string]string, len(authorIDs))
	if len(authorIDs) > 0 {
		users, err := s.users.FindByIDs(ctx, authorIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket authors")
		}
		for i := range users {
			names[users[i].ID] = strings.TrimSpace(users[i].LastName + " " + users[i].FirstName)
		}
	}

	dataset := &export.Dataset{
		Headers: []string{"ID", "Title", "Author", "Status", "Created", "Updated"},
		Rows:    make([]map[string]string, 0, len(tickets)),
	}
	for i := range tickets {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":      tickets[i].ID,
			"Title":   tickets[i].Title,
			"Author":  names[tickets[i].AuthorID],
			"Status":  string(tickets[i].Status),
			"Created": tickets[i].CreatedAt.UTC().Format("2006-01-02 15:04"),
			"Updated": tickets[i].UpdatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return dataset, nil
}
