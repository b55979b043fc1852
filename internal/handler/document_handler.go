package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-desk/helpdesk-api/internal/service"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
	"github.com/campus-desk/helpdesk-api/pkg/response"
)

// DocumentHandler wires HTTP endpoints to the document service.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Download godoc
// @Summary Download document
// @Description Streams the generated file; students may only download their own documents
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document id"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	file, err := h.service.GetFile(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.send(c, file)
}

// DownloadByTicket godoc
// @Summary Download ticket document
// @Description Streams the document generated for the ticket
// @Tags Documents
// @Produce octet-stream
// @Param ticketId path string true "Ticket id"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/ticket/{ticketId} [get]
func (h *DocumentHandler) DownloadByTicket(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	file, err := h.service.GetTicketFile(c.Request.Context(), claims, c.Param("ticketId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.send(c, file)
}

// MyDocuments godoc
// @Summary List own documents
// @Description Returns the caller's document metadata, newest first
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /documents/my-documents [get]
func (h *DocumentHandler) MyDocuments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	docs, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, docs)
}

// UserDocuments godoc
// @Summary List a user's documents
// @Description Admin-only listing of another user's document metadata
// @Tags Documents
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents/user/{userId} [get]
func (h *DocumentHandler) UserDocuments(c *gin.Context) {
	docs, err := h.service.ListForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, docs)
}

func (h *DocumentHandler) send(c *gin.Context, file *service.DocumentFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Document.FileName+`"`)
	c.Data(http.StatusOK, file.Document.ContentType, file.Data)
}
