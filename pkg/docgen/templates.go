package docgen

// Document types supported by the renderer. Unknown types fall back to the
// application template.
const (
	TypeApplication = "application"
	TypeRequest     = "request"
	TypeComplaint   = "complaint"
	TypePetition    = "petition"
)

const applicationTemplate = `ЗАЯВЛЕНИЕ

Я, {{FULL_NAME}}{{GROUP_INFO}},
прошу рассмотреть мою заявку.

Тема заявки: {{TICKET_TITLE}}

Описание:
{{TICKET_DESCRIPTION}}

Дата создания заявки: {{CREATED_DATE}} в {{CREATED_TIME}}

С уважением,
{{FULL_NAME}}
{{EMAIL}}

Дата: {{CURRENT_DATE}}
`

const requestTemplate = `ЗАПРОС

Я, {{FULL_NAME}}{{GROUP_INFO}},
обращаюсь с запросом:

{{TICKET_TITLE}}

{{TICKET_DESCRIPTION}}

Номер заявки: {{TICKET_ID}}
Дата создания: {{CREATED_DATE}}

{{FULL_NAME}}
{{EMAIL}}
{{CURRENT_DATE}}
`

const complaintTemplate = `ЖАЛОБА

Я, {{FULL_NAME}}{{GROUP_INFO}},
подаю жалобу по следующему вопросу:

{{TICKET_TITLE}}

{{TICKET_DESCRIPTION}}

Дата: {{CREATED_DATE}}
Номер заявки: {{TICKET_ID}}

{{FULL_NAME}}
{{EMAIL}}
`

const petitionTemplate = `ХОДАТАЙСТВО

Я, {{FULL_NAME}}{{GROUP_INFO}},
ходатайствую:

{{TICKET_TITLE}}

{{TICKET_DESCRIPTION}}

Дата подачи: {{CREATED_DATE}}
{{CURRENT_DATE}}

{{FULL_NAME}}
{{EMAIL}}
`

// TypeLabel returns the Russian display name of a document type.
func TypeLabel(documentType string) string {
	switch Normalize(documentType) {
	case TypeRequest:
		return "запрос"
	case TypeComplaint:
		return "жалоба"
	case TypePetition:
		return "ходатайство"
	default:
		return "заявление"
	}
}

func templateFor(documentType string) string {
	switch documentType {
	case TypeRequest:
		return requestTemplate
	case TypeComplaint:
		return complaintTemplate
	case TypePetition:
		return petitionTemplate
	default:
		return applicationTemplate
	}
}
