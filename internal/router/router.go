package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/teamdo/backend/api/handler"
	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Todo   *apiHandler.TodoHandler
	Group  *apiHandler.GroupHandler
	User   *apiHandler.UserHandler
	Audit  *apiHandler.AuditHandler
	Health *apiHandler.HealthHandler
}

type Middleware = func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, auth Middleware) *router.Router {
	r := router.New()
	admin := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return auth(middleware.RequireRole(domain.RoleAdmin)(next))
	}

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", auth(handlers.Auth.Logout))

	// Todos
	r.GET("/api/v1/todos", auth(handlers.Todo.List))
	r.POST("/api/v1/todos", auth(handlers.Todo.Create))
	r.GET("/api/v1/todos/export", auth(handlers.Todo.Export))
	r.POST("/api/v1/todos/export", auth(handlers.Todo.ExportByIDs))
	r.POST("/api/v1/todos/bulk-delete", auth(handlers.Todo.BulkDelete))
	r.GET("/api/v1/todos/{id}", auth(handlers.Todo.Get))
	r.PUT("/api/v1/todos/{id}", auth(handlers.Todo.Update))
	r.PATCH("/api/v1/todos/{id}/toggle", auth(handlers.Todo.Toggle))
	r.DELETE("/api/v1/todos/{id}", auth(handlers.Todo.Delete))
	r.GET("/api/v1/todos/{id}/attachments", auth(handlers.Todo.ListAttachments))
	r.POST("/api/v1/todos/{id}/attachments", auth(handlers.Todo.AddAttachment))
	r.DELETE("/api/v1/todos/{id}/attachments/{attachmentID}", auth(handlers.Todo.DeleteAttachment))

	// Lookups
	r.GET("/api/v1/groups", auth(handlers.Group.List))
	r.GET("/api/v1/categories", auth(handlers.Group.ListCategories))
	r.GET("/api/v1/me", auth(handlers.User.Me))

	// Admin
	r.POST("/api/v1/admin/groups", admin(handlers.Group.Create))
	r.PUT("/api/v1/admin/groups/{id}", admin(handlers.Group.Update))
	r.POST("/api/v1/admin/categories", admin(handlers.Group.SaveCategory))
	r.GET("/api/v1/admin/users", admin(handlers.User.List))
	r.PUT("/api/v1/admin/users/{id}/roles", admin(handlers.User.ChangeRoles))
	r.GET("/api/v1/admin/todos/deleted", admin(handlers.Todo.ListDeleted))
	r.POST("/api/v1/admin/todos/{id}/restore", admin(handlers.Todo.Restore))
	r.DELETE("/api/v1/admin/todos/{id}", admin(handlers.Todo.HardDelete))
	r.GET("/api/v1/admin/audit-logs", admin(handlers.Audit.List))

	return r
}
