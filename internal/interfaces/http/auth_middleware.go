package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/pkg/jwt"
)

// Locals keys para la identidad del token y el principal autorizado.
const (
	LocalUserID    = "user_id"
	LocalEmail     = "email"
	LocalPrincipal = "principal"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID y Email a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, entity.NormalizeEmail(claims.Email))
		return c.Next()
	}
}

// RequireRole resuelve el rol del usuario del token con la compuerta y solo deja pasar
// los roles permitidos (sin roles: cualquier autenticado). El rol nunca sale del token.
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 Unauthorized → sin email en el contexto.
//   - 403 Forbidden → rol efectivo fuera de los permitidos.
//   - 503 Service Unavailable → la resolución no terminó a tiempo (reintentable).
func RequireRole(gate *access.Gate, allowed ...entity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := GetEmail(c)
		d := gate.Evaluate(c.UserContext(), email, allowed...)
		if d.Authorized() {
			c.Locals(LocalPrincipal, access.Principal{UserID: GetUserID(c), Email: email, Resolution: d.Resolution})
			return c.Next()
		}
		switch d.Reason {
		case access.ReasonUnauthenticated:
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "autenticación requerida"})
		case access.ReasonTimeout:
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "ROLE_TIMEOUT", Message: "no se pudo verificar el rol, reintente"})
		default:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "permisos insuficientes para este recurso"})
		}
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetEmail devuelve el email normalizado del contexto (después del middleware de auth).
func GetEmail(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalEmail).(string)
	return s
}

// GetPrincipal devuelve el principal autorizado (después de RequireRole).
func GetPrincipal(c *fiber.Ctx) access.Principal {
	p, _ := c.Locals(LocalPrincipal).(access.Principal)
	return p
}
