package client

import (
	"context"
	"errors"

	"github.com/assetverse/assetverse-api/internal/application/role"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// ErrNoSession operación que requiere identidad sin sesión activa.
var ErrNoSession = errors.New("sin sesión activa")

// Session identidad autenticada y su rol resuelto. Se construye una sola vez al iniciar
// sesión y no cambia; cerrar sesión es descartarla.
type Session struct {
	email      string
	token      string
	resolution access.Resolution
}

// NewSession arma una sesión con valores ya conocidos.
func NewSession(email, token string, res access.Resolution) *Session {
	return &Session{email: entity.NormalizeEmail(email), token: token, resolution: res}
}

func (s *Session) Email() string                 { return s.email }
func (s *Session) Token() string                 { return s.token }
func (s *Session) Resolution() access.Resolution { return s.resolution }

// Role rol efectivo (unknown se trata como employee).
func (s *Session) Role() entity.Role { return s.resolution.Effective() }

// Authenticated informa si hay identidad.
func (s *Session) Authenticated() bool {
	return s != nil && s.email != "" && s.token != ""
}

// Login autentica, resuelve el rol con los mismos criterios que el servidor (membresía de
// admin primero, luego el registro del usuario) y devuelve la sesión.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	out, err := c.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	authed := c.WithToken(out.Token)
	res := role.NewResolver(authed, authed, role.WithLogger(c.log)).Resolve(ctx, out.User.Email)
	return NewSession(out.User.Email, out.Token, res), nil
}

// For cliente autenticado con el token de la sesión.
func (c *Client) For(s *Session) (*Client, error) {
	if !s.Authenticated() {
		return nil, ErrNoSession
	}
	return c.WithToken(s.token), nil
}
