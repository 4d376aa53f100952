package http

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/assetverse/assetverse-api/internal/application/auth"
	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/application/usecase"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	UserUC    *usecase.UserUseCase
	AssetUC   *usecase.AssetUseCase
	RequestUC *request.UseCase
	Gate      *access.Gate
	JWTSecret string
	Logger    *logger.Logger
	// Opcionales.
	Observer       HTTPObserver
	MetricsHandler http.Handler
}

// NewApp crea la aplicación Fiber con recover, log de peticiones y las rutas.
func NewApp(deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "assetverse-api",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(deps.Logger, deps.Observer))
	Router(app, deps)
	return app
}

// errorHandler respuesta {code, message} para errores que llegan a Fiber (404 de ruta, panics).
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	label := "INTERNAL"
	switch code {
	case fiber.StatusNotFound:
		label = "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		label = "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest:
		label = "VALIDATION"
	}
	return c.Status(code).JSON(dto.ErrorResponse{Code: label, Message: err.Error()})
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, log)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token); el rol se resuelve por ruta.
	protected := api.Group("", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(deps.Gate)
	adminOnly := RequireRole(deps.Gate, entity.RoleAdmin)
	hrOnly := RequireRole(deps.Gate, entity.RoleHR)
	employeeOnly := RequireRole(deps.Gate, entity.RoleEmployee)

	userHandler := NewUserHandler(deps.UserUC, log)
	assetHandler := NewAssetHandler(deps.AssetUC, log)
	requestHandler := NewRequestHandler(deps.RequestUC, log)

	// Admin
	protected.Get("/admin/check/:email", userHandler.AdminCheck)
	admin := protected.Group("/admin", adminOnly)
	admin.Get("/users", userHandler.ListUsers)
	admin.Delete("/users/:email", userHandler.DeleteUser)
	admin.Get("/organizations", userHandler.ListOrganizations)
	admin.Get("/audit", userHandler.ListAudit)

	// Users
	protected.Get("/users/:email", anyRole, userHandler.Get)
	protected.Patch("/users/:email", anyRole, userHandler.Update)

	// HR
	hr := protected.Group("/hr", hrOnly)
	hr.Get("/employees", userHandler.ListEmployees)
	hr.Delete("/employees/:email", userHandler.RemoveEmployee)

	// Assets (return antes de /:id)
	protected.Patch("/assets/return", employeeOnly, requestHandler.Return)
	protected.Get("/assets", anyRole, assetHandler.List)
	protected.Post("/assets", hrOnly, assetHandler.Create)
	protected.Get("/assets/:id", anyRole, assetHandler.GetByID)
	protected.Patch("/assets/:id", hrOnly, assetHandler.Update)
	protected.Delete("/assets/:id", hrOnly, assetHandler.Delete)

	// Requests
	protected.Post("/asset-requests", employeeOnly, requestHandler.Create)
	protected.Get("/requests", hrOnly, requestHandler.List)
	protected.Get("/requests/mine", employeeOnly, requestHandler.ListMine)
	protected.Patch("/requests/:id/status", hrOnly, requestHandler.UpdateStatus)
	protected.Delete("/requests/:id", hrOnly, requestHandler.Delete)
	protected.Get("/requests/:id/receipt.pdf", anyRole, requestHandler.Receipt)
}
