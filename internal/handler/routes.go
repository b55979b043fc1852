package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-desk/helpdesk-api/internal/middleware"
	"github.com/campus-desk/helpdesk-api/internal/models"
	"github.com/campus-desk/helpdesk-api/internal/service"
)

// Services groups the service dependencies handed to route registration.
type Services struct {
	Auth      *service.AuthService
	Tickets   *service.TicketService
	Documents *service.DocumentService
	Users     *service.UserService
	Exports   *service.ExportService
}

// RegisterRoutes mounts all API routes under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, svcs Services) {
	authHandler := NewAuthHandler(svcs.Auth)
	ticketHandler := NewTicketHandler(svcs.Tickets, svcs.Exports)
	documentHandler := NewDocumentHandler(svcs.Documents)
	userHandler := NewUserHandler(svcs.Users)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(svcs.Auth), authHandler.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	tickets := api.Group("/tickets", middleware.JWT(svcs.Auth))
	tickets.GET("", ticketHandler.List)
	tickets.POST("", ticketHandler.Create)
	tickets.GET("/export", adminOnly, ticketHandler.Export)
	tickets.GET("/:id", ticketHandler.Get)
	tickets.PATCH("/:id/status", adminOnly, ticketHandler.UpdateStatus)
	tickets.GET("/:id/messages", ticketHandler.Messages)
	tickets.POST("/:id/messages", ticketHandler.AddMessage)

	documents := api.Group("/documents", middleware.JWT(svcs.Auth))
	documents.GET("/my-documents", documentHandler.MyDocuments)
	documents.GET("/ticket/:ticketId", documentHandler.DownloadByTicket)
	documents.GET("/user/:userId", adminOnly, documentHandler.UserDocuments)
	documents.GET("/:id", documentHandler.Download)

	users := api.Group("/users", middleware.JWT(svcs.Auth), adminOnly)
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/search", userHandler.Search)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.PATCH("/:id/role", userHandler.ChangeRole)
	users.DELETE("/:id", userHandler.Delete)
}
