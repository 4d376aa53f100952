package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	apphttp "github.com/assetverse/assetverse-api/internal/interfaces/http"
	pkgjwt "github.com/assetverse/assetverse-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "assetverse-test"
	testExpMin    = 60
)

// staticResolver resuelve cada email a un rol fijo; delay simula una verificación lenta.
type staticResolver struct {
	roles map[string]access.Resolution
	delay time.Duration
}

func (r staticResolver) Resolve(ctx context.Context, email string) access.Resolution {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return access.Defaulted()
		}
	}
	if res, ok := r.roles[email]; ok {
		return res
	}
	return access.Defaulted()
}

var testRoles = staticResolver{roles: map[string]access.Resolution{
	"root@assetverse.io": access.Confirmed(entity.RoleAdmin),
	"hr@acme.com":        access.Confirmed(entity.RoleHR),
	"emp@acme.com":       access.Confirmed(entity.RoleEmployee),
}}

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT y cargar locals
//   - RequireRole para autorizar el acceso con el rol resuelto
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(resolver access.Resolver, timeout time.Duration, allowed ...entity.Role) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(access.NewGate(resolver, timeout), allowed...),
		func(c *fiber.Ctx) error {
			p := apphttp.GetPrincipal(c)
			return c.JSON(fiber.Map{"ok": true, "role": p.Role(), "defaulted": p.Resolution.Defaulted})
		},
	)
	return app
}

// tokenFor genera un JWT para email.
func tokenFor(t *testing.T, email string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, email, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: El usuario tiene el rol requerido → debe pasar (HTTP 200).
func TestRequireRole_AdminAccedeRutaAdmin(t *testing.T) {
	app := buildTestApp(testRoles, time.Second, entity.RoleAdmin)
	resp := doRequest(t, app, tokenFor(t, "root@assetverse.io"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "admin debe poder acceder a ruta restringida a admin")

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["role"])
}

// Caso 1b: uno de los roles permitidos (multi-rol) → HTTP 200.
func TestRequireRole_HRAccedeRutaAdminOHR(t *testing.T) {
	app := buildTestApp(testRoles, time.Second, entity.RoleAdmin, entity.RoleHR)
	resp := doRequest(t, app, tokenFor(t, "hr@acme.com"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Caso 2: rol diferente al requerido → HTTP 403 FORBIDDEN, sin redirección.
func TestRequireRole_EmployeeBloqueadoEnRutaAdmin(t *testing.T) {
	app := buildTestApp(testRoles, time.Second, entity.RoleAdmin)
	resp := doRequest(t, app, tokenFor(t, "emp@acme.com"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

// Caso 3: rol no confirmable → se trata como employee (mínimo privilegio).
func TestRequireRole_RolDesconocidoEsEmployee(t *testing.T) {
	hrOnly := buildTestApp(testRoles, time.Second, entity.RoleHR)
	resp := doRequest(t, hrOnly, tokenFor(t, "nuevo@acme.com"))
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	employeeOnly := buildTestApp(testRoles, time.Second, entity.RoleEmployee)
	resp = doRequest(t, employeeOnly, tokenFor(t, "nuevo@acme.com"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "employee", body["role"])
	assert.Equal(t, true, body["defaulted"])
}

// Caso 4: la resolución no termina dentro del timeout → 503 reintentable.
func TestRequireRole_Timeout_Retorna503(t *testing.T) {
	slow := staticResolver{roles: testRoles.roles, delay: time.Second}
	app := buildTestApp(slow, 20*time.Millisecond, entity.RoleHR)
	resp := doRequest(t, app, tokenFor(t, "hr@acme.com"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ROLE_TIMEOUT")
}

// Caso 5: Sin header Authorization → HTTP 401.
func TestRequireRole_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildTestApp(testRoles, time.Second, entity.RoleAdmin)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Caso 6: Token inválido / malformado → HTTP 401 INVALID_TOKEN.
func TestRequireRole_TokenInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(testRoles, time.Second, entity.RoleAdmin)
	for _, h := range []string{"Bearer token.invalido.aqui", "Basic abc", "Bearer "} {
		resp := doRequest(t, app, h)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, h)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware: extracción de claims del token
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "email": apphttp.GetEmail(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenFor(t, "HR@Acme.com"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "hr@acme.com", body["email"], "el email se normaliza")
}
