package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/application/usecase"
	"github.com/assetverse/assetverse-api/pkg/logger"
)

// UserHandler perfiles, verificación de admin, panel de admin y empleados del hr.
type UserHandler struct {
	handlerBase
	uc *usecase.UserUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase, log *logger.Logger) *UserHandler {
	return &UserHandler{handlerBase: handlerBase{log: logger.OrNop(log)}, uc: uc}
}

// AdminCheck godoc
// @Summary      Verificar si un email es administrador
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        email  path  string  true  "Email"
// @Success      200    {object}  dto.AdminCheckResponse
// @Router       /api/admin/check/{email} [get]
func (h *UserHandler) AdminCheck(c *fiber.Ctx) error {
	out, err := h.uc.AdminCheck(c.UserContext(), c.Params("email"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener usuario con sus activos asignados
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        email  path  string  true  "Email"
// @Success      200    {object}  dto.UserResponse
// @Failure      403    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/users/{email} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetProfile(c.UserContext(), GetPrincipal(c), c.Params("email"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar el propio perfil
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        email  path  string  true  "Email"
// @Param        body   body  dto.UpdateProfileRequest  true  "Campos a actualizar"
// @Success      200    {object}  dto.UserResponse
// @Router       /api/users/{email} [patch]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateProfile(c.UserContext(), GetPrincipal(c), c.Params("email"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// ListUsers godoc
// @Summary      Listar usuarios (admin)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        role    query  string  false  "hr | employee"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.UserListResponse
// @Router       /api/admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	out, err := h.uc.ListUsers(c.UserContext(), c.Query("role"), pageFromQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// ListOrganizations godoc
// @Summary      Listar empresas (admin)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserListResponse
// @Router       /api/admin/organizations [get]
func (h *UserHandler) ListOrganizations(c *fiber.Ctx) error {
	out, err := h.uc.ListOrganizations(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteUser godoc
// @Summary      Borrar usuario (admin)
// @Tags         admin
// @Security     Bearer
// @Param        email  path  string  true  "Email"
// @Success      204
// @Router       /api/admin/users/{email} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.uc.DeleteUser(c.UserContext(), GetPrincipal(c), c.Params("email")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAudit godoc
// @Summary      Registro de auditoría (admin)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/admin/audit [get]
func (h *UserHandler) ListAudit(c *fiber.Ctx) error {
	out, err := h.uc.ListAudit(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// ListEmployees godoc
// @Summary      Empleados afiliados a la empresa (hr)
// @Tags         hr
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.EmployeeResponse
// @Router       /api/hr/employees [get]
func (h *UserHandler) ListEmployees(c *fiber.Ctx) error {
	out, err := h.uc.ListEmployees(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveEmployee godoc
// @Summary      Desafiliar empleado (hr)
// @Tags         hr
// @Security     Bearer
// @Param        email  path  string  true  "Email del empleado"
// @Success      204
// @Router       /api/hr/employees/{email} [delete]
func (h *UserHandler) RemoveEmployee(c *fiber.Ctx) error {
	if err := h.uc.RemoveEmployee(c.UserContext(), GetPrincipal(c), c.Params("email")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
