package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-desk/helpdesk-api/internal/service"
	appErrors "github.com/campus-desk/helpdesk-api/pkg/errors"
	"github.com/campus-desk/helpdesk-api/pkg/response"
)

// TicketHandler wires HTTP endpoints to the ticket workflow service.
type TicketHandler struct {
	service *service.TicketService
	exports *service.ExportService
}

// NewTicketHandler creates a new handler.
func NewTicketHandler(svc *service.TicketService, exports *service.ExportService) *TicketHandler {
	return &TicketHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List tickets
// @Description Students see their own tickets; admins see all, hiding resolved and closed unless status is set ("all" lifts filtering)
// @Tags Tickets
// @Produce json
// @Param status query string false "Status filter or all"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tickets, err := h.service.List(c.Request.Context(), claims, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tickets)
}

// Get godoc
// @Summary Get ticket
// @Description Returns the ticket with its author and message thread
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ticket, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ticket)
}

// Create godoc
// @Summary Create ticket
// @Description Creates a ticket and generates its document; generation failure is reported in document_error without failing the request
// @Tags Tickets
// @Accept json
// @Produce json
// @Param payload body service.CreateTicketRequest true "Ticket payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ticket payload"))
		return
	}

	result, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateStatus godoc
// @Summary Update ticket status
// @Description Admin-only status change; any transition between known states is allowed
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket id"
// @Param payload body service.UpdateTicketStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tickets/{id}/status [patch]
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	ticket, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ticket)
}

// AddMessage godoc
// @Summary Add ticket message
// @Description Appends a message to the ticket thread
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket id"
// @Param payload body service.AddMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tickets/{id}/messages [post]
func (h *TicketHandler) AddMessage(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	message, err := h.service.AddMessage(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, message)
}

// Messages godoc
// @Summary List ticket messages
// @Description Returns the ticket thread in chronological order
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tickets/{id}/messages [get]
func (h *TicketHandler) Messages(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	messages, err := h.service.Messages(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages)
}

// Export godoc
// @Summary Export tickets
// @Description Admin-only tabular export of tickets as CSV or PDF
// @Tags Tickets
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Param status query string false "Status filter"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /tickets/export [get]
func (h *TicketHandler) Export(c *gin.Context) {
	file, err := h.exports.Tickets(c.Request.Context(), c.Query("format"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
