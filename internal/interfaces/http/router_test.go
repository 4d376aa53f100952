package http_test

import (
	"bytes"
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

	"github.com/assetverse/assetverse-api/internal/application/auth"
	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/application/role"
	"github.com/assetverse/assetverse-api/internal/application/usecase"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/infrastructure/memstore"
	"github.com/assetverse/assetverse-api/internal/infrastructure/metrics"
	"github.com/assetverse/assetverse-api/internal/infrastructure/pdf"
	apphttp "github.com/assetverse/assetverse-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor completo sobre memstore
// ──────────────────────────────────────────────────────────────────────────────

type server struct {
	app   *fiber.App
	store *memstore.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := memstore.New()
	m := metrics.New()
	resolver := role.NewResolver(store.Admins(), store.Users(), role.WithObserver(m))
	app := apphttp.NewApp(apphttp.RouterDeps{
		AuthUC:         auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		UserUC:         usecase.NewUserUseCase(store.Repos(), store.Admins(), store, resolver),
		AssetUC:        usecase.NewAssetUseCase(store.Assets(), store.Users()),
		RequestUC:      request.NewUseCase(store, store.Repos(), pdf.NewReceiptGenerator(), m),
		Gate:           access.NewGate(resolver, time.Second),
		JWTSecret:      testJWTSecret,
		Observer:       m,
		MetricsHandler: m.Handler(),
	})
	return &server{app: app, store: store}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *server) register(t *testing.T, body map[string]any) string {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": body["email"], "password": body["password"],
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Token
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type errBody struct {
	Code string `json:"code"`
}

type assetBody struct {
	ID              string `json:"id"`
	ProductQuantity int    `json:"productQuantity"`
	Available       bool   `json:"available"`
}

type requestBody struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthYMetrics(t *testing.T) {
	s := newServer(t)
	status, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, raw := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "assetverse_http_requests_total")
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	s := newServer(t)
	s.register(t, map[string]any{"email": "e@acme.com", "password": "supersecret"})

	status, raw := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "e@acme.com", "password": "otra-clave"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errBody](t, raw).Code)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "nadie@acme.com", "password": "supersecret"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegister_AdminNoRegistrable(t *testing.T) {
	s := newServer(t)
	status, raw := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "x@acme.com", "password": "supersecret", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", decode[errBody](t, raw).Code)
}

// Flujo completo: hr registra un activo con una unidad, el empleado lo solicita, hr aprueba,
// un segundo empleado recibe UNAVAILABLE, el primero devuelve y la cantidad vuelve a 1.
func TestCicloDeVidaCompleto(t *testing.T) {
	s := newServer(t)
	hr := s.register(t, map[string]any{"email": "hr@acme.com", "password": "supersecret", "role": "hr", "companyName": "Acme", "packageLimit": 5})
	emp := s.register(t, map[string]any{"email": "emp@acme.com", "password": "supersecret", "name": "Emilio"})
	emp2 := s.register(t, map[string]any{"email": "emp2@acme.com", "password": "supersecret"})

	status, raw := s.do(t, http.MethodPost, "/api/assets", hr, map[string]any{
		"productName": "Laptop", "productType": "returnable", "productQuantity": 1,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	asset := decode[assetBody](t, raw)

	// Caso 1: employee no puede crear activos
	status, _ = s.do(t, http.MethodPost, "/api/assets", emp, map[string]any{"productName": "X", "productType": "returnable"})
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = s.do(t, http.MethodPost, "/api/asset-requests", emp, map[string]any{"assetId": asset.ID, "note": "para el proyecto"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	req := decode[requestBody](t, raw)
	assert.Equal(t, "pending", req.Status)

	// Caso 2: hr no solicita activos
	status, _ = s.do(t, http.MethodPost, "/api/asset-requests", hr, map[string]any{"assetId": asset.ID})
	assert.Equal(t, http.StatusForbidden, status)

	// Caso 3: estado inválido → 400
	status, raw = s.do(t, http.MethodPatch, "/api/requests/"+req.ID+"/status", hr, map[string]any{"status": "returned"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", decode[errBody](t, raw).Code)

	// Caso 4: versión vieja → 409 CONFLICT
	status, raw = s.do(t, http.MethodPatch, "/api/requests/"+req.ID+"/status", hr, map[string]any{"status": "approved", "version": req.Version + 7})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode[errBody](t, raw).Code)

	status, raw = s.do(t, http.MethodPatch, "/api/requests/"+req.ID+"/status", hr, map[string]any{"status": "approved", "version": req.Version})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "approved", decode[requestBody](t, raw).Status)

	// Caso 5: aprobar dos veces → 409
	status, raw = s.do(t, http.MethodPatch, "/api/requests/"+req.ID+"/status", hr, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ILLEGAL_TRANSITION", decode[errBody](t, raw).Code)

	status, raw = s.do(t, http.MethodGet, "/api/assets/"+asset.ID, emp, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[assetBody](t, raw)
	assert.Equal(t, 0, got.ProductQuantity)
	assert.False(t, got.Available)

	status, raw = s.do(t, http.MethodPost, "/api/asset-requests", emp2, map[string]any{"assetId": asset.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "UNAVAILABLE", decode[errBody](t, raw).Code)

	// El perfil del empleado deriva el activo asignado y hr ya lo ve por afiliación.
	status, raw = s.do(t, http.MethodGet, "/api/users/emp@acme.com", hr, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	profile := decode[struct {
		Role   string `json:"role"`
		Assets []struct {
			AssetID string `json:"assetId"`
		} `json:"assets"`
	}](t, raw)
	assert.Equal(t, "employee", profile.Role)
	require.Len(t, profile.Assets, 1)
	assert.Equal(t, asset.ID, profile.Assets[0].AssetID)

	status, raw = s.do(t, http.MethodGet, "/api/hr/employees", hr, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "emp@acme.com")

	status, raw = s.do(t, http.MethodGet, "/api/requests/"+req.ID+"/receipt.pdf", emp, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	status, raw = s.do(t, http.MethodPatch, "/api/assets/return", emp, map[string]any{"assetId": asset.ID})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "returned", decode[requestBody](t, raw).Status)

	status, raw = s.do(t, http.MethodGet, "/api/assets/"+asset.ID, hr, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[assetBody](t, raw).ProductQuantity)

	status, raw = s.do(t, http.MethodGet, "/api/requests/mine?status=returned", emp, nil)
	require.Equal(t, http.StatusOK, status)
	mine := decode[struct {
		Items []requestBody `json:"items"`
	}](t, raw)
	require.Len(t, mine.Items, 1)

	status, _ = s.do(t, http.MethodDelete, "/api/requests/"+req.ID, hr, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodDelete, "/api/requests/"+req.ID, hr, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRutasAdmin(t *testing.T) {
	s := newServer(t)
	root := s.register(t, map[string]any{"email": "root@assetverse.io", "password": "supersecret"})
	hr := s.register(t, map[string]any{"email": "hr@acme.com", "password": "supersecret", "role": "hr", "companyName": "Acme"})

	// Antes de la membresía, root es un employee más.
	status, _ := s.do(t, http.MethodGet, "/api/admin/users", root, nil)
	assert.Equal(t, http.StatusForbidden, status)

	s.store.GrantAdmin("root@assetverse.io")

	status, raw := s.do(t, http.MethodGet, "/api/admin/check/root@assetverse.io", hr, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"isAdmin":true}`, string(raw))

	status, raw = s.do(t, http.MethodGet, "/api/admin/organizations", root, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "Acme")

	status, _ = s.do(t, http.MethodGet, "/api/admin/users", hr, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodDelete, "/api/admin/users/hr@acme.com", root, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, raw = s.do(t, http.MethodGet, "/api/admin/audit", root, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "user.delete")

	// El hr borrado pierde su rol: con el token aún válido queda como employee por defecto.
	status, _ = s.do(t, http.MethodGet, "/api/requests", hr, nil)
	assert.Equal(t, http.StatusForbidden, status)

	u, err := s.store.Users().GetByEmail(context.Background(), "hr@acme.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRutaInexistente_404(t *testing.T) {
	s := newServer(t)
	status, raw := s.do(t, http.MethodGet, "/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[errBody](t, raw).Code)
}
