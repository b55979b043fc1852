package docgen

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/fumiama/go-docx"
)

// ContentTypeDocx is the MIME type of the rendered OOXML document.
const ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Input carries the ticket and author fields substituted into templates.
type Input struct {
	TicketID          string
	TicketTitle       string
	TicketDescription string
	TicketCreatedAt   time.Time

	FirstName  string
	LastName   string
	Patronymic string
	GroupName  string
	Email      string
}

// FullName joins last, first and (when present) patronymic names.
func (in Input) FullName() string {
	parts := []string{in.LastName, in.FirstName}
	if strings.TrimSpace(in.Patronymic) != "" {
		parts = append(parts, in.Patronymic)
	}
	return strings.Join(parts, " ")
}

// Renderer fills per-type text templates and writes the result into a .docx
// container, one paragraph per non-blank line.
type Renderer struct {
	now func() time.Time
}

// NewRenderer constructs a renderer using wall-clock time.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// NewRendererAt constructs a renderer with a fixed clock.
func NewRendererAt(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{now: now}
}

// Render produces the document bytes for the given input and type. Unknown
// types fall back to the application template. The output never contains
// unresolved placeholder tokens.
func (r *Renderer) Render(in Input, documentType string) ([]byte, error) {
	content := r.fill(in, documentType)
	if strings.Contains(content, "{{") {
		return nil, fmt.Errorf("unresolved placeholders in %q template", documentType)
	}

	doc := docx.New().WithDefaultTheme()
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.AddParagraph().AddText(line)
	}

	buf := &bytes.Buffer{}
	if _, err := doc.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName builds a collision-resistant name embedding the ticket id and a
// timestamp.
func (r *Renderer) FileName(in Input, documentType string) string {
	documentType = Normalize(documentType)
	timestamp := r.now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s_%s_%s_%s_%s.docx", documentType, sanitize(in.LastName), sanitize(in.FirstName), in.TicketID, timestamp)
}

func (r *Renderer) fill(in Input, documentType string) string {
	content := templateFor(Normalize(documentType))

	groupInfo := ""
	if strings.TrimSpace(in.GroupName) != "" {
		groupInfo = ", студент группы " + in.GroupName
	}

	now := r.now().UTC()
	replacer := strings.NewReplacer(
		"{{FULL_NAME}}", in.FullName(),
		"{{FIRST_NAME}}", in.FirstName,
		"{{LAST_NAME}}", in.LastName,
		"{{PATRONYMIC}}", in.Patronymic,
		"{{GROUP_NAME}}", in.GroupName,
		"{{GROUP_INFO}}", groupInfo,
		"{{EMAIL}}", in.Email,
		"{{TICKET_TITLE}}", in.TicketTitle,
		"{{TICKET_DESCRIPTION}}", in.TicketDescription,
		"{{TICKET_ID}}", in.TicketID,
		"{{CREATED_DATE}}", in.TicketCreatedAt.UTC().Format("02.01.2006"),
		"{{CREATED_TIME}}", in.TicketCreatedAt.UTC().Format("15:04"),
		"{{CURRENT_DATE}}", now.Format("02.01.2006"),
		"{{CURRENT_YEAR}}", fmt.Sprintf("%d", now.Year()),
	)

	return replacer.Replace(content)
}

func Normalize(documentType string) string {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case TypeRequest:
		return TypeRequest
	case TypeComplaint:
		return TypeComplaint
	case TypePetition:
		return TypePetition
	default:
		return TypeApplication
	}
}

func sanitize(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(strings.TrimSpace(raw))
	if result == "" {
		return "na"
	}
	if len(result) > 50 {
		return result[:50]
	}
	return result
}
