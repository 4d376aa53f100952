// Package client es el SDK del lado cliente de AssetVerse: transporte HTTP hacia la API,
// sesión inmutable, compuerta de autorización y flujo de solicitudes con confirmación y
// recarga tras cada mutación.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/pkg/logger"
)

// ErrTransport fallo de red o respuesta ilegible; siempre reintentable.
var ErrTransport = errors.New("error de transporte")

// APIError respuesta de error de la API ({code, message}).
type APIError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// IsForbidden 403: el rol no alcanza (sin redirección a login).
func (e *APIError) IsForbidden() bool { return e.Status == http.StatusForbidden }

// IsUnauthorized 401: pedir login.
func (e *APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

// IsValidation 400: entrada rechazada, no reintentar.
func (e *APIError) IsValidation() bool { return e.Status == http.StatusBadRequest }

// IsConflict 409: el estado cambió en el servidor; recargar antes de reintentar.
func (e *APIError) IsConflict() bool { return e.Status == http.StatusConflict }

// IsRetryable 503 (timeout de rol o de base de datos).
func (e *APIError) IsRetryable() bool { return e.Status == http.StatusServiceUnavailable }

var codeErrors = map[string]error{
	"VALIDATION":         domain.ErrInvalidInput,
	"UNAUTHORIZED":       domain.ErrUnauthorized,
	"FORBIDDEN":          domain.ErrForbidden,
	"NOT_FOUND":          domain.ErrNotFound,
	"DUPLICATE":          domain.ErrDuplicate,
	"CONFLICT":           domain.ErrConflict,
	"ILLEGAL_TRANSITION": domain.ErrIllegalTransition,
	"UNAVAILABLE":        domain.ErrUnavailable,
	"PACKAGE_LIMIT":      domain.ErrPackageLimit,
}

// Is permite errors.Is(err, domain.ErrX) sobre el código recibido.
func (e *APIError) Is(target error) bool {
	mapped, ok := codeErrors[e.Code]
	return ok && mapped == target
}

// Client cliente JSON de la API. Es inmutable: WithToken devuelve una copia.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	log     *logger.Logger
}

// Option configura el cliente.
type Option func(*Client)

// WithHTTPClient reemplaza el *http.Client (timeouts, transporte de tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger registra las peticiones a nivel debug.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l).Component("client") }
}

// New crea un cliente para baseURL (p. ej. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithToken copia del cliente autenticada con token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("api call")

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read body: %v", ErrTransport, err)
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrTransport, method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(s) * time.Second
	}
	return apiErr
}

// Register da de alta un usuario.
func (c *Client) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Authenticate obtiene un token. Para una sesión completa usar Login.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	in := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsAdmin consulta la membresía de administradores (implementa role.AdminChecker).
func (c *Client) IsAdmin(ctx context.Context, email string) (bool, error) {
	var out dto.AdminCheckResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/check/"+url.PathEscape(email), nil, &out); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}

// UserRole devuelve el rol guardado en el registro del usuario; "" si no existe
// (implementa role.UserRoleSource).
func (c *Client) UserRole(ctx context.Context, email string) (string, error) {
	u, err := c.GetUser(ctx, email)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	return u.Role, nil
}

// GetUser perfil de un usuario con sus activos asignados.
func (c *Client) GetUser(ctx context.Context, email string) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(email), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAssets lista activos con filtros.
func (c *Client) ListAssets(ctx context.Context, q dto.AssetQuery) (*dto.AssetListResponse, error) {
	var out dto.AssetListResponse
	if err := c.do(ctx, http.MethodGet, "/api/assets?"+assetParams(q).Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAsset obtiene un activo.
func (c *Client) GetAsset(ctx context.Context, id string) (*dto.AssetResponse, error) {
	var out dto.AssetResponse
	if err := c.do(ctx, http.MethodGet, "/api/assets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAsset registra un activo (hr).
func (c *Client) CreateAsset(ctx context.Context, in dto.CreateAssetRequest) (*dto.AssetResponse, error) {
	var out dto.AssetResponse
	if err := c.do(ctx, http.MethodPost, "/api/assets", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest crea una solicitud pending (employee).
func (c *Client) CreateRequest(ctx context.Context, in dto.CreateAssetRequestRequest) (*dto.RequestResponse, error) {
	var out dto.RequestResponse
	if err := c.do(ctx, http.MethodPost, "/api/asset-requests", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests solicitudes sobre activos del hr.
func (c *Client) ListRequests(ctx context.Context, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	var out dto.RequestListResponse
	if err := c.do(ctx, http.MethodGet, "/api/requests?"+requestParams(q).Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMyRequests solicitudes propias del empleado.
func (c *Client) ListMyRequests(ctx context.Context, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	var out dto.RequestListResponse
	if err := c.do(ctx, http.MethodGet, "/api/requests/mine?"+requestParams(q).Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus aprueba o rechaza; version > 0 activa la verificación optimista.
func (c *Client) UpdateStatus(ctx context.Context, id, status string, version int) (*dto.RequestResponse, error) {
	in := dto.UpdateStatusRequest{Status: status}
	if version > 0 {
		in.Version = &version
	}
	var out dto.RequestResponse
	if err := c.do(ctx, http.MethodPatch, "/api/requests/"+url.PathEscape(id)+"/status", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReturnAsset devuelve un activo aprobado (employee).
func (c *Client) ReturnAsset(ctx context.Context, in dto.ReturnAssetRequest) (*dto.RequestResponse, error) {
	var out dto.RequestResponse
	if err := c.do(ctx, http.MethodPatch, "/api/assets/return", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRequest borra una solicitud (hr).
func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/requests/"+url.PathEscape(id), nil, nil)
}

// Receipt descarga el comprobante PDF de una solicitud.
func (c *Client) Receipt(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	if err := c.do(ctx, http.MethodGet, "/api/requests/"+url.PathEscape(id)+"/receipt.pdf", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func pageParams(v url.Values, p dto.PageRequest) {
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
}

func assetParams(q dto.AssetQuery) url.Values {
	v := url.Values{}
	pageParams(v, q.PageRequest)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Available {
		v.Set("available", "true")
	}
	return v
}

func requestParams(q dto.RequestQuery) url.Values {
	v := url.Values{}
	pageParams(v, q.PageRequest)
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}
