package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/pkg/logger"
)

// RequestHandler ciclo de vida de solicitudes de activos (protegido).
type RequestHandler struct {
	handlerBase
	uc *request.UseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *request.UseCase, log *logger.Logger) *RequestHandler {
	return &RequestHandler{handlerBase: handlerBase{log: logger.OrNop(log)}, uc: uc}
}

// Create godoc
// @Summary      Solicitar un activo (employee)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAssetRequestRequest  true  "Activo solicitado"
// @Success      201   {object}  dto.RequestResponse
// @Failure      409   {object}  dto.ErrorResponse  "UNAVAILABLE: sin unidades"
// @Router       /api/asset-requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAssetRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func requestQuery(c *fiber.Ctx) dto.RequestQuery {
	return dto.RequestQuery{
		PageRequest: pageFromQuery(c),
		Status:      c.Query("status"),
		Search:      c.Query("search"),
	}
}

// List godoc
// @Summary      Solicitudes sobre activos de la empresa (hr)
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending | approved | rejected | returned | all"
// @Param        search  query  string  false  "Activo o empleado"
// @Success      200     {object}  dto.RequestListResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListForHR(c.UserContext(), GetPrincipal(c), requestQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// ListMine godoc
// @Summary      Solicitudes propias (employee)
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RequestListResponse
// @Router       /api/requests/mine [get]
func (h *RequestHandler) ListMine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), GetPrincipal(c), requestQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Aprobar o rechazar solicitud (hr)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.UpdateStatusRequest  true  "approved | rejected"
// @Success      200   {object}  dto.RequestResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), GetPrincipal(c), c.Params("id"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// Return godoc
// @Summary      Devolver activo (employee)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnAssetRequest  true  "Activo a devolver"
// @Success      200   {object}  dto.RequestResponse
// @Router       /api/assets/return [patch]
func (h *RequestHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnAssetRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Return(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar solicitud (hr, cualquier estado)
// @Tags         requests
// @Security     Bearer
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      204
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetPrincipal(c), c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Receipt godoc
// @Summary      Comprobante PDF de la solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200
// @Router       /api/requests/{id}/receipt.pdf [get]
func (h *RequestHandler) Receipt(c *fiber.Ctx) error {
	pdf, err := h.uc.Receipt(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="comprobante-`+c.Params("id")+`.pdf"`)
	return c.Send(pdf)
}
